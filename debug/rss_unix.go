//go:build unix

package debug

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// residentSet returns the peak resident set size of the process. Linux
// reports ru_maxrss in KiB, Darwin and the BSDs in bytes.
func residentSet() (uint64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	rss := uint64(ru.Maxrss)
	if runtime.GOOS == "linux" {
		rss *= 1024
	}
	return rss, nil
}
