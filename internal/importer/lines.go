package importer

import (
	"regexp"
	"strings"
)

// LineFilter decides whether a physical line reaches a parser's reader.
type LineFilter interface {
	Accepts(line string) bool
}

// NonEmptyLines rejects blank and whitespace-only lines.
type NonEmptyLines struct{}

func (NonEmptyLines) Accepts(line string) bool {
	return strings.TrimSpace(line) != ""
}

// SkipPatterns rejects lines matching any pattern at the start of the line.
type SkipPatterns struct {
	patterns []*regexp.Regexp
}

// NewSkipPatterns compiles patterns, anchoring each at the line start.
func NewSkipPatterns(patterns ...string) (*SkipPatterns, error) {
	s := &SkipPatterns{}
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, err
		}
		s.patterns = append(s.patterns, re)
	}
	return s, nil
}

// MustSkipPatterns is NewSkipPatterns for patterns known at compile time.
func MustSkipPatterns(patterns ...string) *SkipPatterns {
	s, err := NewSkipPatterns(patterns...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *SkipPatterns) Accepts(line string) bool {
	for _, re := range s.patterns {
		if re.MatchString(line) {
			return false
		}
	}
	return true
}

func acceptsAll(filters []LineFilter, line string) bool {
	for _, f := range filters {
		if !f.Accepts(line) {
			return false
		}
	}
	return true
}
