// Package search implements the list filter used to narrow entity lists.
//
// A filter is a list of words separated by spaces, ideographic spaces, tabs
// or newlines. An entity matches when every word is satisfied by at least
// one of its search targets:
//
//	milk          some target contains "milk"
//	milk|cream    some target contains "milk" or "cream"
//	=c3.          some target equals "c3."
//	!is_food      no target equals "is_food"
//	^dairy        no target contains "dairy"
//
// Inside a word, a no-break space or "␣" stands for a space. Targets and
// words are compared after NFC normalization and width folding, so
// full-width and half-width forms match each other.
package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Filter is a parsed filter string.
type Filter struct {
	words []word
}

type mode int

const (
	contains mode = iota
	equals
	notEquals
	notContains
)

type word struct {
	mode mode
	alts []string
}

// Parse splits text into filter words. Empty words are ignored.
func Parse(text string) Filter {
	var f Filter
	for _, w := range strings.FieldsFunc(text, isSeparator) {
		f.words = append(f.words, parseWord(w))
	}
	return f
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '　' || r == '\t' || r == '\n'
}

func parseWord(w string) word {
	w = strings.NewReplacer("\u00a0", " ", "␣", " ").Replace(w)
	m := contains
	switch {
	case strings.HasPrefix(w, "="):
		m, w = equals, w[1:]
	case strings.HasPrefix(w, "!"):
		m, w = notEquals, w[1:]
	case strings.HasPrefix(w, "^"):
		m, w = notContains, w[1:]
	}
	return word{mode: m, alts: strings.Split(fold(w), "|")}
}

// IsEmpty reports whether the filter has no words. An empty filter matches everything.
func (f Filter) IsEmpty() bool { return len(f.words) == 0 }

// Match reports whether targets satisfy every word of the filter.
func (f Filter) Match(targets []string) bool {
	folded := make([]string, 0, len(targets))
	for _, t := range targets {
		if t != "" {
			folded = append(folded, fold(t))
		}
	}
	for _, w := range f.words {
		if !w.match(folded) {
			return false
		}
	}
	return true
}

// match is decided by the first non-empty target that hits an alternative.
// With no hit, the negated forms pass and the positive forms fail.
func (w word) match(targets []string) bool {
	for _, t := range targets {
		for _, alt := range w.alts {
			switch w.mode {
			case equals, notEquals:
				if t == alt {
					return w.mode == equals
				}
			default:
				if strings.Contains(t, alt) {
					return w.mode == contains
				}
			}
		}
	}
	return w.mode == notEquals || w.mode == notContains
}

// Match parses filter and applies it to targets.
func Match(targets []string, filter string) bool {
	return Parse(filter).Match(targets)
}

func fold(s string) string {
	return width.Fold.String(norm.NFC.String(s))
}
