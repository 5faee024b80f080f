package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

// Scoreboard layout constants
const (
	maxScores = 100 // Max games to load per tab
)

// ScoreTab selects what the scoreboard lists.
type ScoreTab int

const (
	TabTopScores ScoreTab = iota // Best totals
	TabHistory                   // Most recent games with frames
)

func (t ScoreTab) String() string {
	if t == TabHistory {
		return "RECENT GAMES"
	}
	return "HIGH SCORES"
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	Model   key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Model, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab},
		{k.Model, k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "left", "right", "h", "l"),
			key.WithHelp("tab", "scores/history"),
		),
		Model: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "scoring model"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// scoringModels are the filters cycled with the model key. Empty means all.
var scoringModels = []string{"", config.ScoringAdditive, config.ScoringOfficial}

// ScoreboardModel is the Bubble Tea model for the scores and history screen.
type ScoreboardModel struct {
	store    *storage.Store
	tab      ScoreTab
	modelIdx int
	games    []storage.GameRecord
	err      error
	table    table.Model
	help     help.Model
	keys     ScoreboardKeyMap
	width    int
	height   int
	quitting bool
}

// NewScoreboardModel creates a new scoreboard model.
func NewScoreboardModel(store *storage.Store, tab ScoreTab, width, height int) ScoreboardModel {
	h := help.New()
	h.ShowAll = false

	m := ScoreboardModel{
		store:  store,
		tab:    tab,
		keys:   DefaultScoreboardKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

// createTable creates a table with columns for the current tab.
func (m *ScoreboardModel) createTable() table.Model {
	var columns []table.Column
	if m.tab == TabHistory {
		columns = []table.Column{
			{Title: "Date", Width: 13},
			{Title: "Player", Width: 10},
			{Title: "Score", Width: 6},
			{Title: "Frames", Width: max(20, m.width-45)},
		}
	} else {
		columns = []table.Column{
			{Title: "Rank", Width: 5},
			{Title: "Score", Width: 6},
			{Title: "Player", Width: 12},
			{Title: "Model", Width: 9},
			{Title: "Date", Width: 13},
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-8)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load fetches games for the current tab and filter.
func (m *ScoreboardModel) load() {
	m.games, m.err = nil, nil
	if m.store != nil {
		if m.tab == TabHistory {
			m.games, m.err = m.store.RecentGames(maxScores)
		} else {
			m.games, m.err = m.store.TopScores(scoringModels[m.modelIdx], maxScores)
		}
	}
	m.table.SetRows(m.rows())
	m.table.GotoTop()
}

// rows formats the loaded games for the current tab.
func (m ScoreboardModel) rows() []table.Row {
	rows := make([]table.Row, len(m.games))
	for i, g := range m.games {
		date := g.CreatedAt.Format("Jan 02 15:04")
		if m.tab == TabHistory {
			rows[i] = table.Row{date, g.Player, fmt.Sprintf("%d", g.Total), frameLine(g.Frames)}
			continue
		}
		rows[i] = table.Row{fmt.Sprintf("#%d", i+1), fmt.Sprintf("%d", g.Total), g.Player, g.Model, date}
	}
	return rows
}

// frameLine renders frames as scorecard marks, e.g. "X 7/ 9- ".
func frameLine(frames []storage.FrameRecord) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		rec := bowling.FrameRecord{Pins: f.Pins, Rolls: f.Rolls, Mark: f.Mark}
		parts[i] = strings.Join(rec.RollSymbols(10), "")
	}
	return strings.Join(parts, " ")
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % 2
			m.table = m.createTable()
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.Model):
			m.modelIdx = (m.modelIdx + 1) % len(scoringModels)
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.table.SetRows(m.rows())
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))

	title := m.tab.String()
	if m.tab == TabTopScores {
		filter := scoringModels[m.modelIdx]
		if filter == "" {
			filter = "all models"
		}
		title = fmt.Sprintf("%s - %s", title, filter)
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m ScoreboardModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.err != nil:
		return emptyStyle.Render("Cannot load games: " + m.err.Error())
	case len(m.games) == 0:
		return emptyStyle.Render("No games recorded yet.\nBowl a game to set a high score!")
	}
	return m.table.View()
}

// IsQuitting returns true if user wants to leave the scoreboard.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// RunScoreboard runs the scoreboard screen on the given tab.
func RunScoreboard(store *storage.Store, tab ScoreTab, width, height int) error {
	p := tea.NewProgram(
		NewScoreboardModel(store, tab, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
