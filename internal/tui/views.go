package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
)

const (
	headerLines = 3
	footerLines = 2
	// maxDetailTxns transactions fit in the detail pane; the rest are counted.
	maxDetailTxns = 5
	// detailHeight is the pane's content plus its border.
	detailHeight = maxDetailTxns + 5
)

func itoa(n int) string { return strconv.Itoa(n) }

func optionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return cli.FormatMoney(*d)
}

// View renders the browser.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.headerView(), m.table.View()}
	if m.showDetail {
		sections = append(sections, m.detailView())
	}
	sections = append(sections, m.footerView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	p := m.ledger.Params
	s := m.ledger.Shortfalls

	title := m.theme.Title.Render(fmt.Sprintf("Cash flow %s → %s", p.StartDate, p.EndDate))

	parts := []string{
		"Opening " + cli.FormatMoney(p.CurrentBalance),
		"Set aside " + cli.FormatMoney(p.SetAside),
		fmt.Sprintf("Lowest %s on %s", cli.FormatMoney(s.Lowest), s.LowestDate),
	}
	summary := m.theme.Subtitle.Render(strings.Join(parts, " · "))

	var alert string
	switch {
	case s.BelowZero != nil:
		alert = m.theme.StatusError.Render("Overdrawn from " + s.BelowZero.String())
	case s.BelowSetAside != nil:
		alert = m.theme.StatusWarning.Render("Below set-aside from " + s.BelowSetAside.String())
	default:
		alert = m.theme.StatusInfo.Render("No shortfalls")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, summary+"  "+alert, "")
}

func (m Model) detailView() string {
	day, ok := m.Selected()
	if !ok {
		return m.theme.RoundedBox.Render("No days in window")
	}

	lines := []string{
		m.theme.Bold.Render(day.Date.String()) + "  opening " + cli.FormatMoney(day.Opening()),
	}

	running := day.Opening()
	for i, t := range day.Transactions {
		running = running.Add(t.Value)
		if i == maxDetailTxns {
			lines = append(lines, fmt.Sprintf("  … %d more", len(day.Transactions)-maxDetailTxns))
			break
		}
		lines = append(lines, fmt.Sprintf("  %-24s %12s → %s", t.Name, cli.FormatMoney(t.Value), cli.FormatMoney(running)))
	}
	if len(day.Transactions) == 0 {
		lines = append(lines, m.theme.Subtitle.Render("  no transactions"))
	}

	lines = append(lines, "closing "+cli.FormatMoney(day.Balance)+"  available "+cli.FormatMoney(day.Available))
	return m.theme.RoundedBox.Render(strings.Join(lines, "\n"))
}

func (m Model) footerView() string {
	status := m.status
	if status == "" {
		status = fmt.Sprintf("Day %d of %d", m.table.Cursor()+1, len(m.ledger.Days))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.StatusInfo.Render(status),
		m.help.View(m.keymap),
	)
}
