package recurrence

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"
)

// RRuleParser parses expressions with github.com/teambition/rrule-go.
type RRuleParser struct{}

var _ Parser = RRuleParser{}

// Parse implements Parser.
func (RRuleParser) Parse(text string, anchor civil.Date) (Pattern, error) {
	expr, err := splitExpression(text)
	if err != nil {
		return nil, err
	}

	p := &rrulePattern{
		loc:     expr.loc,
		rdates:  expr.rdates,
		exdates: make(map[civil.Date]struct{}, len(expr.exdates)),
	}
	for _, d := range expr.exdates {
		p.exdates[d] = struct{}{}
	}
	sort.Slice(p.rdates, func(i, j int) bool { return p.rdates[i].Before(p.rdates[j]) })

	if expr.rrule == "" {
		p.bounded = true
		return p, nil
	}

	opt, err := rrule.StrToROption(expr.rrule)
	if err != nil {
		return nil, parseError("RRULE: %v", err)
	}

	opt.Dtstart = anchor.In(expr.loc)
	if expr.hasStart {
		opt.Dtstart = expr.dtstart
	}
	if !expr.until.IsZero() {
		opt.Until = expr.until
	}

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, parseError("RRULE: %v", err)
	}

	p.rule = rule
	p.bounded = opt.Count > 0 || !opt.Until.IsZero()
	return p, nil
}

type rrulePattern struct {
	rule    *rrule.RRule
	loc     *time.Location
	exdates map[civil.Date]struct{}
	rdates  []time.Time
	bounded bool
}

// set builds a fresh rrule.Set. EXDATEs are applied by calendar date in
// dates() rather than by the library, which compares exact instants.
func (p *rrulePattern) set() *rrule.Set {
	set := &rrule.Set{}
	set.RRule(p.rule)
	for _, t := range p.rdates {
		set.RDate(t)
	}
	return set
}

func (p *rrulePattern) Expand(from, to civil.Date) []civil.Date {
	if to.Before(from) {
		return nil
	}

	after := from.In(p.loc)
	before := to.AddDays(1).In(p.loc).Add(-time.Nanosecond)

	if p.rule == nil {
		var times []time.Time
		for _, t := range p.rdates {
			if !t.Before(after) && !t.After(before) {
				times = append(times, t)
			}
		}
		return p.dates(times)
	}

	return p.dates(p.set().Between(after, before, true))
}

func (p *rrulePattern) LastOccurrence() (civil.Date, bool) {
	if !p.bounded {
		return civil.Date{}, false
	}

	var last civil.Date
	found := false
	latest := func(d civil.Date) {
		if !found || d.After(last) {
			last, found = d, true
		}
	}

	if p.rule != nil {
		if all := p.rule.All(); len(all) > 0 {
			latest(civil.DateOf(all[len(all)-1].In(p.loc)))
		}
	}
	for _, t := range p.rdates {
		latest(civil.DateOf(t.In(p.loc)))
	}
	for d := range p.exdates {
		latest(d)
	}
	return last, found
}

// dates maps ascending instants to ascending, unique, non-excluded dates.
func (p *rrulePattern) dates(times []time.Time) []civil.Date {
	out := make([]civil.Date, 0, len(times))
	for _, t := range times {
		d := civil.DateOf(t.In(p.loc))
		if _, excluded := p.exdates[d]; excluded {
			continue
		}
		if n := len(out); n > 0 && !out[n-1].Before(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}
