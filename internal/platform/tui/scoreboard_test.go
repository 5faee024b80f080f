package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	games := []struct {
		player string
		model  string
		frames []bowling.FrameSnapshot
	}{
		{"alice", "additive", []bowling.FrameSnapshot{
			{Number: 1, Pins: 10, Score: 10, Rolls: []int{10}, Mark: bowling.MarkStrike},
			{Number: 2, Pins: 10, Score: 10, Rolls: []int{7, 3}, Mark: bowling.MarkSpare},
		}},
		{"bob", "official", []bowling.FrameSnapshot{
			{Number: 1, Pins: 9, Score: 9, Rolls: []int{9, 0}, Mark: bowling.MarkOpen},
		}},
	}
	for _, g := range games {
		r := bowling.Result{Model: g.model, Frames: g.frames}
		for _, f := range g.frames {
			r.Total += f.Score
		}
		if _, err := store.SaveGame(uuid.New(), g.player, r, storage.Meta{}); err != nil {
			t.Fatalf("SaveGame() failed: %v", err)
		}
	}
	return store
}

func TestScoreboardTopScores(t *testing.T) {
	m := NewScoreboardModel(seededStore(t), TabTopScores, 80, 24)

	rows := m.rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, expected 2", len(rows))
	}
	if rows[0][1] != "20" || rows[0][2] != "alice" || rows[1][0] != "#2" {
		t.Errorf("rows = %v", rows)
	}

	next, _ := m.Update(runeKey('m'))
	m = next.(ScoreboardModel)
	if got := m.rows(); len(got) != 1 || got[0][2] != "alice" {
		t.Errorf("additive filter rows = %v", got)
	}
	if !strings.Contains(m.View(), "additive") {
		t.Error("title should name the filter")
	}
}

func TestScoreboardHistoryTab(t *testing.T) {
	m := NewScoreboardModel(seededStore(t), TabTopScores, 100, 30)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(ScoreboardModel)
	if m.tab != TabHistory {
		t.Fatalf("tab = %s", m.tab)
	}

	rows := m.rows()
	if len(rows) != 2 || rows[0][1] != "bob" {
		t.Fatalf("history rows = %v", rows)
	}
	if rows[0][3] != "9-" || rows[1][3] != "X 7/" {
		t.Errorf("frame lines = %q, %q", rows[0][3], rows[1][3])
	}
}

func TestScoreboardEmptyAndQuit(t *testing.T) {
	m := NewScoreboardModel(nil, TabHistory, 80, 24)
	if !strings.Contains(m.View(), "No games recorded yet") {
		t.Error("empty scoreboard should say so")
	}

	next, cmd := m.Update(runeKey('q'))
	if cmd == nil || !next.(ScoreboardModel).IsQuitting() {
		t.Error("q should quit the scoreboard")
	}
}
