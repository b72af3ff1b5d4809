//go:build !linux

package platform

import "os"

// fadvise is Linux-only.
func adviseSequential(_ *os.File) {}

func adviseDontNeed(_ *os.File) {}
