package engine

import (
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/recurrence"
)

func day(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustRules(t *testing.T, anchor string, defs ...RuleDefinition) RuleSet {
	t.Helper()
	rs, err := NewRuleSet(defs, day(t, anchor))
	require.NoError(t, err)
	return rs
}

func mustWindow(t *testing.T, in WindowInput) Window {
	t.Helper()
	w, err := NewWindow(in, day(t, "2024-01-01"))
	require.NoError(t, err)
	return w
}

func mustContext(t *testing.T, rs RuleSet, w Window) *Context {
	t.Helper()
	c, err := NewContext(rs, w)
	require.NoError(t, err)
	return c
}

// fakeParser hands out fixed patterns keyed by expression text.
type fakeParser struct {
	patterns map[string]fakePattern
}

func (f fakeParser) Parse(expression string, _ civil.Date) (recurrence.Pattern, error) {
	p, ok := f.patterns[expression]
	if !ok {
		return nil, fmt.Errorf("%w: unknown expression %q", common.ErrRecurrenceParse, expression)
	}
	return p, nil
}

type fakePattern struct {
	dates   []civil.Date
	bounded bool
}

func (p fakePattern) Expand(from, to civil.Date) []civil.Date {
	var out []civil.Date
	for _, d := range p.dates {
		if !d.Before(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out
}

func (p fakePattern) LastOccurrence() (civil.Date, bool) {
	if !p.bounded || len(p.dates) == 0 {
		return civil.Date{}, false
	}
	return p.dates[len(p.dates)-1], true
}
