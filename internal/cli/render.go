package cli

import (
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// Table is a bordered text table. The first column is left-aligned and the
// rest are right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// FormatMoney renders d with two decimals and thousands separators.
func FormatMoney(d decimal.Decimal) string {
	d = model.RoundCents(d)
	s := d.Abs().StringFixed(model.CentPlaces)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func formatOptionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return FormatMoney(*d)
}

func formatOptionalDate(d *civil.Date) string {
	if d == nil {
		return "never"
	}
	return d.String()
}

// RenderTable draws t with rounded borders.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return TableBorderStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	bar := TableBorderStyle.Render("│")

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(BoldStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(bar)
		for i, h := range t.Headers {
			b.WriteString(TableHeaderStyle.Render(pad(h, widths[i], i == 0)))
			b.WriteString(bar)
		}
		b.WriteString("\n")
		b.WriteString(rule("├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		b.WriteString(bar)
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			padded := pad(cell, widths[i], i == 0)
			if i > 0 && strings.HasPrefix(cell, "-") {
				padded = NegativeStyle.Render(padded)
			}
			b.WriteString(padded)
			b.WriteString(bar)
		}
		b.WriteString("\n")
	}
	b.WriteString(rule("╰", "┴", "╯"))

	return b.String()
}

func pad(s string, width int, left bool) string {
	gap := strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
	if left {
		return " " + s + gap + " "
	}
	return " " + gap + s + " "
}

// TransactionsTable lists projected transactions in order.
func TransactionsTable(txns []model.Transaction) Table {
	t := Table{
		Title:   "Transactions",
		Headers: []string{"Date", "Rule", "Name", "Value"},
		Rows:    make([][]string, 0, len(txns)),
	}
	for _, tx := range txns {
		t.Rows = append(t.Rows, []string{tx.Date.String(), tx.RuleID, tx.Name, FormatMoney(tx.Value)})
	}
	return t
}

// LedgerTable lists one row per day. High and Low columns appear only when
// intra-day tracking is on.
func LedgerTable(days []model.DayRecord, highLow bool) Table {
	t := Table{
		Title:   "Day by day",
		Headers: []string{"Date", "Transactions", "Balance", "Available"},
		Rows:    make([][]string, 0, len(days)),
	}
	if highLow {
		t.Headers = append(t.Headers, "High", "Low")
	}

	for _, d := range days {
		row := []string{d.Date.String(), strconv.Itoa(len(d.Transactions)), FormatMoney(d.Balance), FormatMoney(d.Available)}
		if highLow {
			row = append(row, formatOptionalMoney(d.High), formatOptionalMoney(d.Low))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ParamsTable shows the resolved projection parameters.
func ParamsTable(p model.Params) Table {
	highLow := "off"
	if p.HighLow {
		highLow = "on"
	}
	return Table{
		Title:   "Parameters",
		Headers: []string{"Parameter", "Value"},
		Rows: [][]string{
			{"Start date", p.StartDate.String()},
			{"End date", p.EndDate.String()},
			{"Days", strconv.Itoa(p.Days())},
			{"Current balance", FormatMoney(p.CurrentBalance)},
			{"Set aside", FormatMoney(p.SetAside)},
			{"High/low", highLow},
		},
	}
}

// ShortfallsTable shows where the ledger dips below its thresholds.
func ShortfallsTable(s model.Shortfalls) Table {
	return Table{
		Title:   "Shortfalls",
		Headers: []string{"Measure", "Value"},
		Rows: [][]string{
			{"Lowest balance", fmt.Sprintf("%s on %s", FormatMoney(s.Lowest), s.LowestDate)},
			{"Free to spend", FormatMoney(s.FreeToSpend)},
			{"Below set-aside", formatOptionalDate(s.BelowSetAside)},
			{"Below zero", formatOptionalDate(s.BelowZero)},
		},
	}
}

// ImpactTable lists each rule's projected total and share of income.
func ImpactTable(r model.ImpactReport) Table {
	t := Table{
		Title:   "Impact",
		Headers: []string{"Rule", "Occurrences", "Total", "Share of income"},
	}
	add := func(list []model.RuleImpact) {
		for _, ri := range list {
			t.Rows = append(t.Rows, []string{ri.Name, strconv.Itoa(ri.Occurrences), FormatMoney(ri.Total), ri.Share.StringFixed(model.CentPlaces) + "%"})
		}
	}
	add(r.Income)
	add(r.Expenses)
	t.Rows = append(t.Rows,
		[]string{"Total income", "", FormatMoney(r.TotalIncome), ""},
		[]string{"Total expenses", "", FormatMoney(r.TotalExpenses), ""},
		[]string{"Net", "", FormatMoney(r.Net()), ""},
	)
	return t
}

// RunsTable lists recorded projections, newest first.
func RunsTable(runs []model.Run) Table {
	t := Table{
		Title:   "Recorded runs",
		Headers: []string{"ID", "Recorded", "Label", "Window", "Rules", "Final", "Lowest", "Below zero"},
		Rows:    make([][]string, 0, len(runs)),
	}
	for _, r := range runs {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.RecordedAt.Local().Format("2006-01-02 15:04"),
			r.Label,
			fmt.Sprintf("%s..%s", r.Params.StartDate, r.Params.EndDate),
			strconv.Itoa(r.RuleCount),
			FormatMoney(r.FinalBalance),
			FormatMoney(r.Shortfalls.Lowest),
			formatOptionalDate(r.Shortfalls.BelowZero),
		})
	}
	return t
}
