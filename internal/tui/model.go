// Package tui provides an interactive browser for a projected ledger.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// Ledger is what the browser shows.
type Ledger struct {
	Params     model.Params
	Shortfalls model.Shortfalls
	Days       []model.DayRecord
}

// Model holds the browser state.
type Model struct {
	ledger     Ledger
	theme      Theme
	keymap     KeyMap
	table      table.Model
	help       help.Model
	status     string
	width      int
	height     int
	showDetail bool
	quitting   bool
}

// New creates a browser model for ledger.
func New(ledger Ledger, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := Model{
		ledger:     ledger,
		theme:      cfg.Theme,
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		width:      cfg.Width,
		height:     cfg.Height,
		showDetail: cfg.ShowDetail,
	}

	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header
	styles.Selected = cfg.Theme.Selected

	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	m.resize()
	return m
}

func (m Model) columns() []table.Column {
	cols := []table.Column{
		{Title: "", Width: 1},
		{Title: "Date", Width: 10},
		{Title: "Txns", Width: 4},
		{Title: "Balance", Width: 14},
		{Title: "Available", Width: 14},
	}
	if m.ledger.Params.HighLow {
		cols = append(cols,
			table.Column{Title: "High", Width: 14},
			table.Column{Title: "Low", Width: 14},
		)
	}
	return cols
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.ledger.Days))
	for i, d := range m.ledger.Days {
		flag := ""
		if m.isShortfall(i) {
			flag = "!"
		}
		row := table.Row{
			flag,
			d.Date.String(),
			itoa(len(d.Transactions)),
			cli.FormatMoney(d.Balance),
			cli.FormatMoney(d.Available),
		}
		if m.ledger.Params.HighLow {
			row = append(row, optionalMoney(d.High), optionalMoney(d.Low))
		}
		rows = append(rows, row)
	}
	return rows
}

// isShortfall reports whether day i dips below the set-aside at any point.
func (m Model) isShortfall(i int) bool {
	return m.ledger.Days[i].Floor().LessThan(m.ledger.Params.SetAside)
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keymap.ToggleDetail):
			m.showDetail = !m.showDetail
			m.resize()
			return m, nil
		case key.Matches(msg, m.keymap.NextShortfall):
			m.jumpShortfall(1)
			return m, nil
		case key.Matches(msg, m.keymap.PrevShortfall):
			m.jumpShortfall(-1)
			return m, nil
		}
	}

	m.status = ""
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// jumpShortfall moves the cursor to the next shortfall day in direction dir.
func (m *Model) jumpShortfall(dir int) {
	for i := m.table.Cursor() + dir; i >= 0 && i < len(m.ledger.Days); i += dir {
		if m.isShortfall(i) {
			m.table.SetCursor(i)
			m.status = "Shortfall on " + m.ledger.Days[i].Date.String()
			return
		}
	}
	if dir > 0 {
		m.status = "No later shortfall"
	} else {
		m.status = "No earlier shortfall"
	}
}

// resize fits the table between the header and the footer.
func (m *Model) resize() {
	reserved := headerLines + footerLines
	if m.help.ShowAll {
		reserved += len(m.keymap.FullHelp())
	}
	if m.showDetail {
		reserved += detailHeight
	}
	m.table.SetHeight(max(3, m.height-reserved))
	m.table.SetWidth(m.width)
	m.help.Width = m.width
}

// Selected returns the day under the cursor.
func (m Model) Selected() (model.DayRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.ledger.Days) {
		return model.DayRecord{}, false
	}
	return m.ledger.Days[i], true
}
