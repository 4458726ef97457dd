//go:build !linux

package region

import "fmt"

// Allocate is not implemented outside Linux: named POSIX shared memory
// and huge-page backing are both Linux-specific facilities this package
// relies on directly rather than emulating.
func Allocate(size int, name string) (*Region, error) {
	return nil, fmt.Errorf("region: shared-memory allocation is only implemented on linux")
}

// Attach is not implemented outside Linux. See Allocate.
func Attach(size int, name string) (*Region, error) {
	return nil, fmt.Errorf("region: shared-memory attach is only implemented on linux")
}
