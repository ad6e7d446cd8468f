package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

func TestContextResolvesEffectiveWindow(t *testing.T) {
	tests := []struct {
		name    string
		defs    []RuleDefinition
		start   string
		end     string
		wantEnd string
	}{
		{
			name: "bounded rule past the end extends to the day after",
			defs: []RuleDefinition{
				{ID: "once", Pattern: "DTSTART:20180721T000000Z\nRRULE:FREQ=YEARLY;COUNT=1", Value: "-10"},
			},
			start:   "2018-06-20",
			end:     "2018-06-22",
			wantEnd: "2018-07-22",
		},
		{
			name: "unbounded rule never extends",
			defs: []RuleDefinition{
				{ID: "monthly", Pattern: "DTSTART:20240101\nRRULE:FREQ=MONTHLY", Value: "-10"},
			},
			start:   "2024-01-01",
			end:     "2024-02-15",
			wantEnd: "2024-02-15",
		},
		{
			name: "excluded final occurrence still extends",
			defs: []RuleDefinition{
				{ID: "loan", Pattern: "DTSTART:20240101\nRRULE:FREQ=MONTHLY;COUNT=6\nEXDATE:20240601", Value: "-200"},
			},
			start:   "2024-01-01",
			end:     "2024-03-01",
			wantEnd: "2024-06-02",
		},
		{
			name: "unbounded rule with a later rdate never extends",
			defs: []RuleDefinition{
				{ID: "monthly", Pattern: "DTSTART:20240101\nRRULE:FREQ=MONTHLY\nRDATE:20240615", Value: "-10"},
			},
			start:   "2024-01-01",
			end:     "2024-03-01",
			wantEnd: "2024-03-01",
		},
		{
			name: "bounded rule ending inside the window does not shrink it",
			defs: []RuleDefinition{
				{ID: "short", Pattern: "DTSTART:20240101\nRRULE:FREQ=DAILY;COUNT=3", Value: "-10"},
			},
			start:   "2024-01-01",
			end:     "2024-01-31",
			wantEnd: "2024-01-31",
		},
		{
			name: "bounded rule ending on the end date does not extend",
			defs: []RuleDefinition{
				{ID: "edge", Pattern: "DTSTART:20240101\nRRULE:FREQ=DAILY;UNTIL=20240131", Value: "-10"},
			},
			start:   "2024-01-01",
			end:     "2024-01-31",
			wantEnd: "2024-01-31",
		},
		{
			name: "latest bounded rule wins",
			defs: []RuleDefinition{
				{ID: "loan", Pattern: "DTSTART:20240115\nRRULE:FREQ=MONTHLY;COUNT=6", Value: "-200"},
				{ID: "gift", Pattern: "RDATE:20240301", Value: "50"},
				{ID: "rent", Pattern: "DTSTART:20240101\nRRULE:FREQ=MONTHLY", Value: "-1500"},
			},
			start:   "2024-01-01",
			end:     "2024-02-01",
			wantEnd: "2024-06-16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := mustRules(t, tt.start, tt.defs...)
			w := mustWindow(t, WindowInput{StartDate: tt.start, EndDate: tt.end})

			c := mustContext(t, rs, w)
			assert.Equal(t, day(t, tt.start), c.EffectiveStart())
			assert.Equal(t, day(t, tt.wantEnd), c.EffectiveEnd())
			assert.Equal(t, day(t, tt.end), c.Window().End, "configured end is untouched")
		})
	}
}

func TestContextParamsReflectExtension(t *testing.T) {
	rs := mustRules(t, "2018-06-20",
		RuleDefinition{ID: "once", Pattern: "DTSTART:20180721T000000Z\nRRULE:FREQ=YEARLY;COUNT=1", Value: "-10"},
	)
	w := mustWindow(t, WindowInput{
		StartDate:      "2018-06-20",
		EndDate:        "2018-06-22",
		CurrentBalance: "100",
		SetAside:       "25",
		HighLow:        true,
	})

	p := mustContext(t, rs, w).Params()
	assert.Equal(t, day(t, "2018-06-20"), p.StartDate)
	assert.Equal(t, day(t, "2018-07-22"), p.EndDate)
	assert.Equal(t, "100.00", p.CurrentBalance.StringFixed(2))
	assert.Equal(t, "25.00", p.SetAside.StringFixed(2))
	assert.True(t, p.HighLow)
	assert.Equal(t, 33, p.Days())
}

func TestNewContextRejectsInvalidWindow(t *testing.T) {
	w := Window{Start: day(t, "2024-02-01"), End: day(t, "2024-01-01")}

	_, err := NewContext(RuleSet{}, w)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidWindow)
}

func TestNewContextRejectsInvalidRules(t *testing.T) {
	rs := RuleSet{defs: []RuleDefinition{{ID: "a", Pattern: "nope", Value: "1"}}}
	w := mustWindow(t, WindowInput{StartDate: "2024-01-01", EndDate: "2024-01-31"})

	_, err := NewContext(rs, w)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidRule)
}

func TestEmptyRuleSetStillProjects(t *testing.T) {
	w := mustWindow(t, WindowInput{StartDate: "2024-01-01", EndDate: "2024-01-03", CurrentBalance: "5"})
	c := mustContext(t, RuleSet{}, w)

	assert.Empty(t, GenerateTransactions(c))
	days := GenerateDayByDays(c)
	require.Len(t, days, 3)
	for _, d := range days {
		assert.Equal(t, "5.00", d.Balance.StringFixed(2))
	}
}
