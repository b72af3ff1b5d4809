package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFile reads rules from path and appends them to the chain.
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	if err := c.Load(f); err != nil {
		return fmt.Errorf("filter file %s: %w", path, err)
	}
	return nil
}

// Load reads one rule per line:
//
//	- pattern   exclude
//	+ pattern   include
//	pattern     exclude
//	# comment
//
// Blank lines are ignored.
func (c *Chain) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		include := false
		if rest, ok := strings.CutPrefix(text, "+ "); ok {
			include, text = true, strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(text, "- "); ok {
			text = strings.TrimSpace(rest)
		}

		if err := c.add(text, include); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}
