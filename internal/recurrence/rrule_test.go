package recurrence

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func dates(t *testing.T, ss ...string) []civil.Date {
	t.Helper()
	out := make([]civil.Date, 0, len(ss))
	for _, s := range ss {
		out = append(out, date(t, s))
	}
	return out
}

func TestRRuleParserExpand(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		anchor     string
		from       string
		to         string
		want       []string
	}{
		{
			name:       "monthly on the first, bounds inclusive",
			expression: "DTSTART:20240101T000000Z\nRRULE:FREQ=MONTHLY",
			anchor:     "2024-01-01",
			from:       "2024-01-01",
			to:         "2024-04-01",
			want:       []string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01"},
		},
		{
			name:       "weekly without DTSTART uses anchor",
			expression: "RRULE:FREQ=WEEKLY;BYDAY=MO",
			anchor:     "2024-05-19",
			from:       "2024-05-19",
			to:         "2024-06-19",
			want:       []string{"2024-05-20", "2024-05-27", "2024-06-03", "2024-06-10", "2024-06-17"},
		},
		{
			name:       "bare FREQ line",
			expression: "FREQ=DAILY;INTERVAL=3",
			anchor:     "2024-02-27",
			from:       "2024-02-27",
			to:         "2024-03-05",
			want:       []string{"2024-02-27", "2024-03-01", "2024-03-04"},
		},
		{
			name:       "biweekly keeps cadence across a year boundary",
			expression: "DTSTART:20241223T000000Z\nRRULE:FREQ=WEEKLY;INTERVAL=2",
			anchor:     "2024-01-01",
			from:       "2024-12-20",
			to:         "2025-02-03",
			want:       []string{"2024-12-23", "2025-01-06", "2025-01-20", "2025-02-03"},
		},
		{
			name:       "window starting mid-series keeps anchor cadence",
			expression: "DTSTART:20240101\nRRULE:FREQ=WEEKLY;INTERVAL=2",
			anchor:     "2000-01-01",
			from:       "2024-01-10",
			to:         "2024-02-12",
			want:       []string{"2024-01-15", "2024-01-29", "2024-02-12"},
		},
		{
			name:       "count bound",
			expression: "RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=2",
			anchor:     "2024-05-19",
			from:       "2024-05-19",
			to:         "2024-06-19",
			want:       []string{"2024-05-20", "2024-05-27"},
		},
		{
			name:       "date-only until is inclusive",
			expression: "DTSTART;VALUE=DATE:20240520\nRRULE:FREQ=WEEKLY;UNTIL=20240603",
			anchor:     "2024-01-01",
			from:       "2024-05-01",
			to:         "2024-06-30",
			want:       []string{"2024-05-20", "2024-05-27", "2024-06-03"},
		},
		{
			name:       "exdate removes by calendar date",
			expression: "DTSTART:20240520T000000Z\nRRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240530T000000Z\nEXDATE:20240527T120000Z",
			anchor:     "2024-01-01",
			from:       "2024-05-19",
			to:         "2024-05-30",
			want:       []string{"2024-05-20"},
		},
		{
			name:       "rdate adds occurrences",
			expression: "DTSTART:20240101\nRRULE:FREQ=MONTHLY;COUNT=2\nRDATE:20240115",
			anchor:     "2024-01-01",
			from:       "2024-01-01",
			to:         "2024-12-31",
			want:       []string{"2024-01-01", "2024-01-15", "2024-02-01"},
		},
		{
			name:       "explicit dates only",
			expression: "RDATE:20240315,20240101",
			anchor:     "2024-01-01",
			from:       "2024-01-01",
			to:         "2024-03-14",
			want:       []string{"2024-01-01"},
		},
		{
			name:       "month day 31 skips short months",
			expression: "DTSTART:20240131\nRRULE:FREQ=MONTHLY;BYMONTHDAY=31",
			anchor:     "2024-01-01",
			from:       "2024-01-01",
			to:         "2024-05-31",
			want:       []string{"2024-01-31", "2024-03-31", "2024-05-31"},
		},
		{
			name:       "yearly by month",
			expression: "DTSTART:20240415\nRRULE:FREQ=YEARLY;BYMONTH=4",
			anchor:     "2024-01-01",
			from:       "2024-01-01",
			to:         "2026-12-31",
			want:       []string{"2024-04-15", "2025-04-15", "2026-04-15"},
		},
		{
			name:       "last weekday of month via BYSETPOS",
			expression: "DTSTART:20240101\nRRULE:FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1",
			anchor:     "2024-01-01",
			from:       "2024-01-01",
			to:         "2024-03-31",
			want:       []string{"2024-01-31", "2024-02-29", "2024-03-29"},
		},
		{
			name:       "inverted window is empty",
			expression: "RRULE:FREQ=DAILY",
			anchor:     "2024-01-01",
			from:       "2024-01-10",
			to:         "2024-01-01",
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(RRuleParser{}, tt.expression, date(t, tt.anchor), date(t, tt.from), date(t, tt.to))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, dates(t, tt.want...), got)
		})
	}
}

func TestRRuleParserLastOccurrence(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantLast    string
		wantBounded bool
	}{
		{
			name:        "single yearly occurrence",
			expression:  "DTSTART:20180721T000000Z\nRRULE:FREQ=YEARLY;COUNT=1",
			wantLast:    "2018-07-21",
			wantBounded: true,
		},
		{
			name:        "count",
			expression:  "DTSTART:20240520\nRRULE:FREQ=WEEKLY;COUNT=3",
			wantLast:    "2024-06-03",
			wantBounded: true,
		},
		{
			name:        "until",
			expression:  "DTSTART:20240520\nRRULE:FREQ=WEEKLY;UNTIL=20240605",
			wantLast:    "2024-06-03",
			wantBounded: true,
		},
		{
			name:        "excluded final occurrence still counts",
			expression:  "DTSTART:20240520\nRRULE:FREQ=WEEKLY;COUNT=3\nEXDATE:20240603",
			wantLast:    "2024-06-03",
			wantBounded: true,
		},
		{
			name:        "exdate past the final occurrence",
			expression:  "DTSTART:20240520\nRRULE:FREQ=WEEKLY;COUNT=3\nEXDATE:20240701",
			wantLast:    "2024-07-01",
			wantBounded: true,
		},
		{
			name:        "rdate past the final occurrence",
			expression:  "DTSTART:20240520\nRRULE:FREQ=WEEKLY;UNTIL=20240605\nRDATE:20240620",
			wantLast:    "2024-06-20",
			wantBounded: true,
		},
		{
			name:        "explicit dates",
			expression:  "RDATE:20240315,20240101",
			wantLast:    "2024-03-15",
			wantBounded: true,
		},
		{
			name:        "unbounded",
			expression:  "DTSTART:20240101\nRRULE:FREQ=MONTHLY",
			wantBounded: false,
		},
		{
			name:        "unbounded with a later rdate",
			expression:  "DTSTART:20240101\nRRULE:FREQ=MONTHLY\nRDATE:20240615",
			wantBounded: false,
		},
		{
			name:        "bounded but every date excluded",
			expression:  "DTSTART:20240101\nRRULE:FREQ=DAILY;COUNT=1\nEXDATE:20240101",
			wantLast:    "2024-01-01",
			wantBounded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last, bounded, err := LastOccurrence(RRuleParser{}, tt.expression, date(t, "2024-01-01"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBounded, bounded)
			if tt.wantBounded {
				assert.Equal(t, date(t, tt.wantLast), last)
			}
		})
	}
}

func TestRRuleParserRejectsMalformedExpressions(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{name: "empty", expression: "  "},
		{name: "missing frequency", expression: "RRULE:INTERVAL=2"},
		{name: "unknown frequency", expression: "RRULE:FREQ=SOMETIMES"},
		{name: "unsupported property", expression: "BOGUS:1"},
		{name: "malformed line", expression: "not a rule"},
		{name: "bad dtstart", expression: "DTSTART:notadate\nRRULE:FREQ=DAILY"},
		{name: "bad until", expression: "RRULE:FREQ=DAILY;UNTIL=tomorrow"},
		{name: "two rrules", expression: "RRULE:FREQ=DAILY\nRRULE:FREQ=WEEKLY"},
		{name: "dtstart only", expression: "DTSTART:20240101"},
		{name: "bad exdate", expression: "RRULE:FREQ=DAILY\nEXDATE:2024-13-45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RRuleParser{}.Parse(tt.expression, date(t, "2024-01-01"))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrRecurrenceParse)
		})
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	expr := "DTSTART:20240101\nRRULE:FREQ=WEEKLY;BYDAY=MO,FR"
	p, err := RRuleParser{}.Parse(expr, date(t, "2024-01-01"))
	require.NoError(t, err)

	first := p.Expand(date(t, "2024-01-01"), date(t, "2024-12-31"))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Expand(date(t, "2024-01-01"), date(t, "2024-12-31")))
	}
}
