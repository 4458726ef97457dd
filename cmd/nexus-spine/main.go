// Command nexus-spine is the external supervisor process that
// initializes the region: it allocates the shared-memory substrate,
// activates the agent collective, starts the cognitive loop on its own
// OS thread, and layers the observational HTTP status endpoint and
// Redis status bridge on top — both non-load-bearing, advisory only.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/nexusspine/spine"
	"github.com/nexusspine/spine/internal/config"
	"github.com/nexusspine/spine/internal/consolidation"
	"github.com/nexusspine/spine/internal/gwt"
	"github.com/nexusspine/spine/internal/logging"
	"github.com/nexusspine/spine/internal/redisbridge"
	"github.com/nexusspine/spine/internal/ringbuf"
	"github.com/nexusspine/spine/internal/statusapi"
)

func main() {
	var (
		verbose   = flag.Bool("v", false, "Verbose output")
		activate  = flag.Bool("activate-all", true, "Activate every agent on startup")
		noRedis   = flag.Bool("no-redis", false, "Disable the Redis status bridge")
		noHTTP    = flag.Bool("no-http", false, "Disable the HTTP status endpoint")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := config.FromEnv()

	logger.Info("nexus spine starting",
		"shm_name", cfg.ShmName, "top_k", cfg.TopK,
		"cycle_us", cfg.CyclePeriod.Microseconds(), "http_port", cfg.HTTPPort)

	region, err := spine.Allocate(cfg.ShmName)
	if err != nil {
		logger.Error("failed to allocate shared region", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := region.Close(); err != nil {
			logger.Error("error releasing region mapping", "error", err)
		}
	}()

	if *activate {
		for i := 0; i < spine.NumAgents; i++ {
			_ = region.ActivateAgent(i)
		}
		logger.Info("activated agent collective", "active", region.ActiveCount(), "total", spine.NumAgents)
	}

	metrics := spine.NewMetrics()
	observer := spine.NewMetricsObserver(metrics)
	loop := spine.NewLoop(region, cfg.CyclePeriod, cfg.TopK, observer)
	loop.Start()
	logger.Info("cognitive loop started")

	source := &loopSource{region: region, loop: loop, metrics: metrics, cycleBudgetUs: int(cfg.CyclePeriod.Microseconds())}
	status := statusapi.New(source)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*noHTTP {
		go func() {
			if err := status.ListenAndServe(cfg.HTTPPort); err != nil {
				logger.Error("http server stopped", "error", err)
			}
		}()
	}

	if !*noRedis {
		bridge := redisbridge.New(cfg.RedisURL, status)
		go bridge.Run(ctx)
	}

	installStackDumpHandler(logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	cancel()
	loop.Stop()
	metrics.Stop()
	loop.Wait()
	logger.Info("cognitive loop stopped", "cycles", loop.Cycles())
}

// loopSource adapts a running *spine.Loop/*spine.Region/*spine.Metrics
// triple to the statusapi.Source interface.
type loopSource struct {
	region        *spine.Region
	loop          *spine.Loop
	metrics       *spine.Metrics
	cycleBudgetUs int
}

func (s *loopSource) Cycles() uint64 { return s.loop.Cycles() }

func (s *loopSource) AvgCycleMicros() float64 {
	snap := s.metrics.Snapshot(uint64(s.cycleBudgetUs) * 1000)
	return float64(snap.AvgTickLatencyNs) / 1000.0
}

func (s *loopSource) TargetCycleMicros() int { return s.cycleBudgetUs }
func (s *loopSource) ActiveAgents() int      { return s.region.ActiveCount() }
func (s *loopSource) TotalAgents() int       { return spine.NumAgents }
func (s *loopSource) GWTStats() gwt.Stats    { return s.loop.GWTStats() }
func (s *loopSource) ConsolidationStats() consolidation.Stats {
	return s.loop.ConsolidationStats()
}
func (s *loopSource) RingStats() ringbuf.Stats { return s.region.RingStats() }

// installStackDumpHandler wires SIGUSR1 to dump every goroutine's stack
// to stderr and a timestamped file, for diagnosing a wedged cognitive
// loop in the field.
func installStackDumpHandler(logger *logging.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		for range ch {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n", buf[:n])

			filename := fmt.Sprintf("nexus-spine-stacks-%d.txt", time.Now().Unix())
			if f, err := os.Create(filename); err == nil {
				fmt.Fprintf(f, "Goroutine stack dump at %s\n\n", time.Now().Format(time.RFC3339))
				f.Write(buf[:n])
				fmt.Fprintf(f, "\n=== GOROUTINE PROFILE ===\n")
				pprof.Lookup("goroutine").WriteTo(f, 2)
				f.Close()
				logger.Info("stack dump written", "file", filename)
			}
		}
	}()
}
