package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

func TestNewWindow(t *testing.T) {
	tests := []struct {
		name         string
		in           WindowInput
		today        string
		wantStart    string
		wantEnd      string
		wantBalance  string
		wantSetAside string
		wantErr      bool
	}{
		{
			name:         "defaults",
			today:        "2024-03-15",
			wantStart:    "2024-03-15",
			wantEnd:      "2025-03-15",
			wantBalance:  "0.00",
			wantSetAside: "0.00",
		},
		{
			name:         "default end clamps to month end",
			in:           WindowInput{StartDate: "2024-02-29"},
			today:        "2024-01-01",
			wantStart:    "2024-02-29",
			wantEnd:      "2025-02-28",
			wantBalance:  "0.00",
			wantSetAside: "0.00",
		},
		{
			name:         "explicit values are rounded",
			in:           WindowInput{StartDate: "2024-01-01", EndDate: "2024-04-01", CurrentBalance: "1000.005", SetAside: "250.5"},
			today:        "2023-06-01",
			wantStart:    "2024-01-01",
			wantEnd:      "2024-04-01",
			wantBalance:  "1000.01",
			wantSetAside: "250.50",
		},
		{
			name:         "single day window",
			in:           WindowInput{StartDate: "2024-01-01", EndDate: "2024-01-01"},
			today:        "2024-01-01",
			wantStart:    "2024-01-01",
			wantEnd:      "2024-01-01",
			wantBalance:  "0.00",
			wantSetAside: "0.00",
		},
		{
			name:    "start after end",
			in:      WindowInput{StartDate: "2024-02-01", EndDate: "2024-01-01"},
			today:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "end before defaulted start",
			in:      WindowInput{EndDate: "2023-12-31"},
			today:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "bad start",
			in:      WindowInput{StartDate: "01/02/2024"},
			today:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "bad balance",
			in:      WindowInput{CurrentBalance: "a lot"},
			today:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "bad set aside",
			in:      WindowInput{SetAside: "$100"},
			today:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "balance exponent out of range",
			in:      WindowInput{CurrentBalance: "1e20000000"},
			today:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "set aside exponent out of range",
			in:      WindowInput{SetAside: "1e-20000000"},
			today:   "2024-01-01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWindow(tt.in, day(t, tt.today))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidWindow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, day(t, tt.wantStart), w.Start)
			assert.Equal(t, day(t, tt.wantEnd), w.End)
			assert.Equal(t, tt.wantBalance, w.CurrentBalance.StringFixed(2))
			assert.Equal(t, tt.wantSetAside, w.SetAside.StringFixed(2))
			assert.Equal(t, tt.in.HighLow, w.HighLow)
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2024-01-15", 1, "2024-02-15"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-02-29", 12, "2025-02-28"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-01-10", -13, "2022-12-10"},
		{"2024-05-31", 0, "2024-05-31"},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, day(t, tt.want), AddMonths(day(t, tt.from), tt.months))
		})
	}
}
