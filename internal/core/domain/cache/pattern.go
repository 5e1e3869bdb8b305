package cache

import (
	"regexp"
	"strings"
)

// Pattern is a key glob in which '*' matches any sequence of characters.
// Every other character, including '?' and '[', is literal.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

func CompilePattern(glob string) *Pattern {
	parts := strings.Split(glob, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	// (?s) lets '*' span newlines, as Redis MATCH does
	re := regexp.MustCompile("(?s)^" + strings.Join(parts, ".*") + "$")
	return &Pattern{glob: glob, re: re}
}

func (p *Pattern) String() string { return p.glob }

func (p *Pattern) Match(key string) bool { return p.re.MatchString(key) }

// RedisGlob escapes the characters Redis MATCH treats specially so that only
// '*' keeps its wildcard meaning.
func (p *Pattern) RedisGlob() string {
	var b strings.Builder
	for _, r := range p.glob {
		switch r {
		case '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
