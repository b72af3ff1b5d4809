// Package filter implements rsync-style include/exclude rules applied to
// entry names after root-filter projection.
package filter

// Rule is one include or exclude pattern.
type Rule struct {
	Pattern *compiledPattern
	Include bool
}

// Chain is an ordered rule list. The first rule that matches decides; an
// entry no rule matches is kept.
type Chain struct {
	rules []Rule
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude appends an include rule.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: include})
	return nil
}

// Len returns the number of rules.
func (c *Chain) Len() int { return len(c.rules) }

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool { return c == nil || len(c.rules) == 0 }

// Match reports whether name itself is kept by the first matching rule.
// Ancestors are not consulted; filesystem walkers prune excluded
// directories before descending, so they only need Match.
func (c *Chain) Match(name string, isDir bool) bool {
	for _, rule := range c.rules {
		if rule.Pattern.match(name, isDir) {
			return rule.Include
		}
	}
	return true
}

// Allows reports whether name is kept and no directory above it is
// excluded. Archive members and listing records arrive without their
// parents being walked, so every ancestor is checked explicitly.
func (c *Chain) Allows(name string, isDir bool) bool {
	if c.Empty() {
		return true
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' && !c.Match(name[:i], true) {
			return false
		}
	}
	return c.Match(name, isDir)
}
