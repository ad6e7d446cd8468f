package model

import (
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty is zero", input: "", want: "0.00"},
		{name: "whitespace is zero", input: "  ", want: "0.00"},
		{name: "integer", input: "1000", want: "1000.00"},
		{name: "rounds half away from zero", input: "10.005", want: "10.01"},
		{name: "rounds negative half away from zero", input: "-10.005", want: "-10.01"},
		{name: "rounds down below half", input: "2.344", want: "2.34"},
		{name: "exponent form", input: "1.5e2", want: "150.00"},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "nan", input: "NaN", wantErr: true},
		{name: "largest accepted amount", input: "999999999999999.99", want: "999999999999999.99"},
		{name: "fine fraction rounds", input: "0.000000000000000000000001", want: "0.00"},
		{name: "huge exponent", input: "1e20000000", wantErr: true},
		{name: "tiny exponent", input: "1e-20000000", wantErr: true},
		{name: "zero with huge exponent", input: "0e-20000000", wantErr: true},
		{name: "too many integer digits", input: "1000000000000000", wantErr: true},
		{name: "too long", input: "1." + strings.Repeat("0", 70), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestDayRecordOpeningAndFloor(t *testing.T) {
	day := DayRecord{
		Date:    civil.Date{Year: 2024, Month: 1, Day: 1},
		Balance: decimal.NewFromInt(80),
		Transactions: []Transaction{
			{Value: decimal.NewFromInt(-50)},
			{Value: decimal.NewFromInt(30)},
		},
	}

	assert.True(t, day.Opening().Equal(decimal.NewFromInt(100)))
	assert.True(t, day.Floor().Equal(decimal.NewFromInt(80)), "without low, floor is min(open, close)")

	low := decimal.NewFromInt(50)
	day.Low = &low
	assert.True(t, day.Floor().Equal(low))
}

func TestNewRunUsesLastClosingBalance(t *testing.T) {
	params := Params{CurrentBalance: decimal.NewFromInt(10)}

	empty := NewRun("empty", params, 0, nil, Shortfalls{})
	assert.True(t, empty.FinalBalance.Equal(decimal.NewFromInt(10)))

	days := []DayRecord{{Balance: decimal.NewFromInt(5)}, {Balance: decimal.NewFromInt(-3)}}
	run := NewRun("plan", params, 2, days, Shortfalls{})
	assert.True(t, run.FinalBalance.Equal(decimal.NewFromInt(-3)))
	assert.Equal(t, 2, run.RuleCount)
	assert.Equal(t, "plan", run.Label)
}
