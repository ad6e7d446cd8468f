// Package recurrence expands calendar recurrence expressions (an RFC 5545
// subset) into concrete dates. The projection engine only depends on the
// Parser and Pattern interfaces, so the underlying rule engine can be swapped.
package recurrence

import (
	"cloud.google.com/go/civil"
)

// Pattern is a parsed recurrence expression.
type Pattern interface {
	// Expand returns the ascending, de-duplicated occurrence dates within
	// [from, to], both bounds inclusive.
	Expand(from, to civil.Date) []civil.Date
	// LastOccurrence returns the latest date an internally bounded pattern
	// (COUNT, UNTIL, or only explicit dates) names: its final scheduled
	// occurrence, RDATE or EXDATE, whichever is latest. An excluded final
	// occurrence still counts. The boolean is false for unbounded patterns.
	LastOccurrence() (civil.Date, bool)
}

// Parser turns expression text into a Pattern. Expressions without their own
// DTSTART are anchored at anchor.
type Parser interface {
	Parse(expression string, anchor civil.Date) (Pattern, error)
}

// Expand parses expression and expands it within [from, to] in one step.
func Expand(p Parser, expression string, anchor, from, to civil.Date) ([]civil.Date, error) {
	pattern, err := p.Parse(expression, anchor)
	if err != nil {
		return nil, err
	}
	return pattern.Expand(from, to), nil
}

// LastOccurrence parses expression and reports its final occurrence.
func LastOccurrence(p Parser, expression string, anchor civil.Date) (civil.Date, bool, error) {
	pattern, err := p.Parse(expression, anchor)
	if err != nil {
		return civil.Date{}, false, err
	}
	last, bounded := pattern.LastOccurrence()
	return last, bounded, nil
}
