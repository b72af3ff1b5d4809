// Package platform wraps OS-specific file access hints used while hashing.
package platform

import "os"

// AdviseSequential tells the kernel f will be read once, front to back.
func AdviseSequential(f *os.File) {
	adviseSequential(f)
}

// Release drops f's cached pages once it has been fully read, so a large
// walk does not evict the rest of the page cache.
func Release(f *os.File) {
	adviseDontNeed(f)
}
