package filter

import (
	"errors"
	"regexp"
	"strings"
)

// compiledPattern matches entry names against one glob.
type compiledPattern struct {
	re       *regexp.Regexp
	original string
	anchored bool // leading "/" or an inner "/": match from the root
	dirOnly  bool // trailing "/": directories only
}

func compilePattern(pattern string) (*compiledPattern, error) {
	if strings.Trim(pattern, "/") == "" {
		return nil, errors.New("empty filter pattern")
	}
	cp := &compiledPattern{original: pattern}

	body, dirOnly := strings.CutSuffix(pattern, "/")
	cp.dirOnly = dirOnly

	if rest, ok := strings.CutPrefix(body, "/"); ok {
		body = rest
		cp.anchored = true
	} else {
		cp.anchored = strings.Contains(body, "/")
	}

	expr := globToRegex(body) + "$"
	if cp.anchored {
		expr = "^" + expr
	} else {
		expr = "(^|/)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	cp.re = re
	return cp, nil
}

func (cp *compiledPattern) match(name string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	return cp.re.MatchString(name)
}

func (cp *compiledPattern) String() string { return cp.original }

// globToRegex translates glob syntax: "*" stays inside one path segment,
// "**" crosses segments, "?" is one non-separator byte, "[...]" and "[!...]"
// are classes. Everything else is literal.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		switch c := glob[i]; c {
		case '*':
			switch {
			case strings.HasPrefix(glob[i:], "**/"):
				b.WriteString("(.*/)?")
				i += 3
			case strings.HasPrefix(glob[i:], "**"):
				b.WriteString(".*")
				i += 2
			default:
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			end := classEnd(glob, i)
			if end < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := glob[i+1 : end]
			if neg, ok := strings.CutPrefix(class, "!"); ok {
				class = "^" + neg
			}
			b.WriteString("[" + class + "]")
			i = end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return b.String()
}

// classEnd returns the index of the "]" closing the class opened at start,
// or -1. A "]" right after "[" or "[!" is a member, not the terminator.
func classEnd(glob string, start int) int {
	j := start + 1
	if j < len(glob) && glob[j] == '!' {
		j++
	}
	if j < len(glob) && glob[j] == ']' {
		j++
	}
	if k := strings.IndexByte(glob[j:], ']'); k >= 0 {
		return j + k
	}
	return -1
}
