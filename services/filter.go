package services

import (
	"fmt"
	"regexp"
)

// TitleFilter is the structural allow-list applied to listing titles. Only
// titles matching the exact grammar "<model>, <capacity> <unit>" pass; the
// pattern is configuration, and it must expose exactly two capture groups
// for the model and memory parts. Rejections are routine, not errors: false
// negatives are accepted to keep malformed input away from the gate.
type TitleFilter struct {
	re *regexp.Regexp
}

// NewTitleFilter compiles the configured grammar.
func NewTitleFilter(pattern string) (*TitleFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("filter: compile title pattern: %w", err)
	}
	if re.NumSubexp() != 2 {
		return nil, fmt.Errorf("filter: title pattern needs exactly 2 capture groups (model, memory), got %d", re.NumSubexp())
	}
	return &TitleFilter{re: re}, nil
}

// Split matches the title against the grammar and returns its model and
// memory parts. ok is false when the title does not conform.
func (f *TitleFilter) Split(title string) (model, memory string, ok bool) {
	m := f.re.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
