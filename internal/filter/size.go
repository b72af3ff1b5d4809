package filter

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeSuffixes = map[byte]int64{
	'B': 1,
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// ParseSize parses a byte count such as "512", "64K", "1.5M" or "2G".
// Suffixes are case-insensitive powers of 1024, as in rsync. A trailing
// "/s" is accepted so rates read naturally on the command line.
func ParseSize(s string) (int64, error) {
	orig := s
	s = strings.TrimSuffix(strings.TrimSpace(s), "/s")
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	mult := int64(1)
	if m, ok := sizeSuffixes[upper(s[len(s)-1])]; ok {
		mult = m
		s = s[:len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("invalid size: %q", orig)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid size: %q", orig)
		}
		return n * mult, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid size: %q", orig)
	}
	return int64(f * float64(mult)), nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
