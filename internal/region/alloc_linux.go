//go:build linux

package region

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/nexusspine/spine/internal/logging"
)

var log = logging.Default().WithComponent("region")

const shmDir = "/dev/shm"

// shmPath maps a POSIX shared-memory name (which must start with '/',
// per shm_open(3)) onto the tmpfs-backed path glibc itself uses to
// implement shm_open.
func shmPath(name string) (string, error) {
	if name == "" || name[0] != '/' {
		return "", fmt.Errorf("region: shared memory name must start with '/', got %q", name)
	}
	return filepath.Join(shmDir, name[1:]), nil
}

// Allocate creates (or re-opens and truncates) a region of at least
// size bytes. A named region is always backed by regular POSIX shared
// memory; huge pages are only attempted for anonymous regions, since
// hugetlbfs and tmpfs-backed POSIX shm are distinct backing stores on
// Linux and the two policies don't compose.
func Allocate(size int, name string) (*Region, error) {
	if name != "" {
		return allocatePosixShm(size, name)
	}

	if data, err := allocateHugePages(size); err == nil {
		return &Region{data: data, owner: true}, nil
	} else {
		log.Warn("huge-page allocation failed, falling back to regular pages", "error", err)
	}

	data, err := allocateRegular(size)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, owner: true}, nil
}

func allocatePosixShm(size int, name string) (*Region, error) {
	path, err := shmPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: shm_open %s: %w", name, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("region: ftruncate %s: %w", name, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %s: %w", name, err)
	}

	for i := range data {
		data[i] = 0
	}
	if err := unix.Mlock(data); err != nil {
		log.Warn("mlock failed, continuing without page-lock guarantee", "name", name, "error", err)
	}

	return &Region{data: data, name: name, owner: true}, nil
}

const hugePageSize = 2 * 1024 * 1024

func roundUp(size, align int) int {
	return (size + align - 1) / align * align
}

func allocateHugePages(size int) ([]byte, error) {
	aligned := roundUp(size, hugePageSize)
	data, err := unix.Mmap(-1, 0, aligned, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		return nil, fmt.Errorf("region: hugepage mmap: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("region: hugepage mlock: %w", err)
	}
	return data[:size], nil
}

func allocateRegular(size int) ([]byte, error) {
	aligned := roundUp(size, os.Getpagesize())
	data, err := unix.Mmap(-1, 0, aligned, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_POPULATE)
	if err != nil {
		return nil, fmt.Errorf("region: regular mmap: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		log.Warn("mlock failed for regular-page region, continuing without page-lock guarantee", "error", err)
	}
	return data[:size], nil
}

// Attach opens an existing named shared-memory segment and maps it. It
// never zeroes the contents — the allocating process already did that,
// and a second zeroing would race concurrent attachees.
func Attach(size int, name string) (*Region, error) {
	path, err := shmPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("region: shm_open(attach) %s: %w", name, err)
	}
	defer f.Close()

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("region: mmap(attach) %s: %w", name, err)
	}

	return &Region{data: data, name: name, owner: false}, nil
}
