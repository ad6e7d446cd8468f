package recurrence

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

// expression is the line-level breakdown of a recurrence text block.
type expression struct {
	dtstart  time.Time
	until    time.Time
	loc      *time.Location
	rrule    string
	rdates   []time.Time
	exdates  []civil.Date
	hasStart bool
}

func parseError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrRecurrenceParse, fmt.Sprintf(format, args...))
}

// splitExpression breaks text into DTSTART, RRULE, RDATE and EXDATE parts.
func splitExpression(text string) (*expression, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, parseError("empty expression")
	}

	expr := &expression{loc: time.UTC}
	var rdateLines, exdateLines []string
	var rdateParams, exdateParams [][]string
	sawRule := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		name, params, value, err := splitLine(line)
		if err != nil {
			return nil, err
		}

		switch name {
		case "DTSTART":
			if expr.hasStart {
				return nil, parseError("multiple DTSTART lines")
			}
			loc, err := locationFrom(params)
			if err != nil {
				return nil, err
			}
			start, _, err := parseStamp(value, loc)
			if err != nil {
				return nil, parseError("DTSTART: %v", err)
			}
			expr.dtstart = start
			expr.loc = start.Location()
			expr.hasStart = true
		case "RRULE":
			if sawRule {
				return nil, parseError("only one RRULE line is supported")
			}
			expr.rrule = value
			sawRule = true
		case "RDATE":
			rdateLines = append(rdateLines, value)
			rdateParams = append(rdateParams, params)
		case "EXDATE":
			exdateLines = append(exdateLines, value)
			exdateParams = append(exdateParams, params)
		default:
			return nil, parseError("unsupported property %q", name)
		}
	}

	// RDATE/EXDATE default to the DTSTART zone, so they are resolved last.
	for i, value := range rdateLines {
		times, err := parseStampList(value, rdateParams[i], expr.loc)
		if err != nil {
			return nil, parseError("RDATE: %v", err)
		}
		expr.rdates = append(expr.rdates, times...)
	}
	for i, value := range exdateLines {
		times, err := parseStampList(value, exdateParams[i], expr.loc)
		if err != nil {
			return nil, parseError("EXDATE: %v", err)
		}
		for _, t := range times {
			expr.exdates = append(expr.exdates, civil.DateOf(t))
		}
	}

	if !sawRule && len(expr.rdates) == 0 {
		return nil, parseError("expression has no RRULE or RDATE")
	}

	if sawRule {
		rest, until, err := extractUntil(expr.rrule, expr.loc)
		if err != nil {
			return nil, err
		}
		expr.rrule = rest
		expr.until = until
	}

	return expr, nil
}

// splitLine splits "NAME;PARAM=X:VALUE". A bare "FREQ=..." line is an RRULE.
func splitLine(line string) (name string, params []string, value string, err error) {
	if strings.HasPrefix(strings.ToUpper(line), "FREQ=") {
		return "RRULE", nil, line, nil
	}

	head, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", nil, "", parseError("malformed line %q", line)
	}

	parts := strings.Split(head, ";")
	name = strings.ToUpper(strings.TrimSpace(parts[0]))
	return name, parts[1:], strings.TrimSpace(value), nil
}

func locationFrom(params []string) (*time.Location, error) {
	for _, p := range params {
		key, val, _ := strings.Cut(p, "=")
		if strings.EqualFold(key, "TZID") {
			loc, err := time.LoadLocation(val)
			if err != nil {
				return nil, parseError("unknown TZID %q", val)
			}
			return loc, nil
		}
	}
	return nil, nil
}

func parseStampList(value string, params []string, fallback *time.Location) ([]time.Time, error) {
	loc, err := locationFrom(params)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = fallback
	}

	var times []time.Time
	for _, v := range strings.Split(value, ",") {
		t, _, err := parseStamp(strings.TrimSpace(v), loc)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, nil
}

// parseStamp accepts basic (20240101, 20240101T090000, 20240101T090000Z) and
// ISO (2024-01-01, RFC 3339) forms. Floating times land in loc, or UTC.
func parseStamp(value string, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}

	switch {
	case len(value) == 8:
		t, err := time.ParseInLocation("20060102", value, loc)
		return t, true, err
	case len(value) == 10:
		t, err := time.ParseInLocation("2006-01-02", value, loc)
		return t, true, err
	case len(value) == 16 && strings.HasSuffix(value, "Z"):
		t, err := time.Parse("20060102T150405Z", value)
		return t, false, err
	case len(value) == 15:
		t, err := time.ParseInLocation("20060102T150405", value, loc)
		return t, false, err
	default:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("unrecognized date %q", value)
		}
		return t, false, nil
	}
}

// extractUntil pulls UNTIL out of the RRULE text so that date-only values
// cover their whole day. A date-only UNTIL is inclusive of that date.
func extractUntil(rule string, loc *time.Location) (string, time.Time, error) {
	var until time.Time
	var kept []string
	hasFreq := false

	for _, part := range strings.Split(rule, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// rrule-go matches property names and weekday codes case-sensitively.
		part = strings.ToUpper(part)
		key, val, _ := strings.Cut(part, "=")
		switch key {
		case "UNTIL":
			t, dateOnly, err := parseStamp(val, loc)
			if err != nil {
				return "", time.Time{}, parseError("UNTIL: %v", err)
			}
			if dateOnly {
				t = t.AddDate(0, 0, 1).Add(-time.Second)
			}
			until = t.In(loc)
		case "FREQ":
			hasFreq = true
			kept = append(kept, part)
		default:
			kept = append(kept, part)
		}
	}

	if !hasFreq {
		return "", time.Time{}, parseError("RRULE requires FREQ")
	}
	return strings.Join(kept, ";"), until, nil
}
