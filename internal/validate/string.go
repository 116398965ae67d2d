package validate

import (
	"fmt"
)

// StringRule validates string length and character set.
type StringRule struct {
	// Value to validate.
	Value string
	// Name of the field in json.
	Name string

	// MinLength is the minimum allowed length of the string in bytes.
	MinLength int
	// MaxLength is the maximum allowed length of the string in bytes.
	MaxLength int

	// CharacterRanges is a list of character ranges. When set, every rune in
	// Value must be within one of the ranges.
	CharacterRanges []CharRange
}

type CharRange struct {
	Low  rune
	High rune
}

var (
	AlphabetLower = CharRange{Low: 'a', High: 'z'}
	AlphabetUpper = CharRange{Low: 'A', High: 'Z'}
	Numbers       = CharRange{Low: '0', High: '9'}
	Dash          = CharRange{Low: '-', High: '-'}
	Underscore    = CharRange{Low: '_', High: '_'}
	Dot           = CharRange{Low: '.', High: '.'}
	AlphaNumeric  = []CharRange{AlphabetLower, AlphabetUpper, Numbers}
)

func (s StringRule) Validate() *Failure {
	value := s.Value
	if value == "" {
		return nil
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if length := len(value); length < s.MinLength {
		add("must be at least %d characters", s.MinLength)
	}
	if length := len(value); s.MaxLength > 0 && length > s.MaxLength {
		add("can be at most %d characters", s.MaxLength)
	}

	if len(s.CharacterRanges) > 0 {
	runes:
		for _, c := range value {
			for _, r := range s.CharacterRanges {
				if c >= r.Low && c <= r.High {
					continue runes
				}
			}
			add("character %q is not allowed", c)
			break
		}
	}

	if len(problems) > 0 {
		return fail(s.Name, problems...)
	}
	return nil
}
