//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

//nolint:gosec // G115: fd values are small non-negative integers
func adviseSequential(f *os.File) {
	//nolint:errcheck // fadvise is a hint; some filesystems reject it
	unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

//nolint:gosec // G115: fd values are small non-negative integers
func adviseDontNeed(f *os.File) {
	//nolint:errcheck // fadvise is a hint; some filesystems reject it
	unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
}
