package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

var spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func newTestModel(t *testing.T, frames int) (Model, *bowlgame.Game, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "bowling.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultBowlingConfig()
	cfg.Game.TotalFrames = frames
	game := bowlgame.NewWithConfig(cfg)

	m := NewModel(game, store, "alice", core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 11})
	m.Init()
	return m, game, store
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// bowlUntilOver throws whenever a ball is in hand until the game ends.
func bowlUntilOver(t *testing.T, m Model, game *bowlgame.Game) Model {
	t.Helper()
	charge := 0
	for i := 0; i < 60*120 && !game.IsGameOver(); i++ {
		bowler := game.Lane().Bowler
		switch {
		case game.Lane().Ball.Held() && !bowler.Charging():
			m = update(m, spaceKey)
			charge = 0
		case bowler.Charging() && charge > 40:
			m = update(m, spaceKey)
		}
		charge++
		m = update(m, TickMsg{})
	}
	if !game.IsGameOver() {
		t.Fatal("game did not finish")
	}
	return m
}

func TestModelSavesFinishedGameOnce(t *testing.T) {
	m, game, store := newTestModel(t, 1)

	m = bowlUntilOver(t, m, game)
	for i := 0; i < 10; i++ {
		m = update(m, TickMsg{})
	}

	if m.SavedGameID() == uuid.Nil {
		t.Fatal("finished game was not saved")
	}
	games, err := store.RecentGames(10)
	if err != nil {
		t.Fatalf("RecentGames() failed: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("stored %d games, expected 1", len(games))
	}
	if games[0].GameID != m.SavedGameID() || games[0].Player != "alice" || len(games[0].Frames) != 1 {
		t.Errorf("stored game = %+v", games[0])
	}
	if games[0].Total != game.State().Score {
		t.Errorf("stored total %d, game score %d", games[0].Total, game.State().Score)
	}
}

func TestModelRestartAllowsAnotherSave(t *testing.T) {
	m, game, store := newTestModel(t, 1)
	m = bowlUntilOver(t, m, game)
	m = update(m, TickMsg{})
	first := m.SavedGameID()

	m = update(m, runeKey('r'))
	m = update(m, TickMsg{})
	if game.IsGameOver() {
		t.Fatal("restart did not start a new game")
	}

	m = bowlUntilOver(t, m, game)
	m = update(m, TickMsg{})

	if m.SavedGameID() == first {
		t.Error("second game reused the first id")
	}
	games, _ := store.RecentGames(10)
	if len(games) != 2 {
		t.Errorf("stored %d games, expected 2", len(games))
	}
}

func TestModelQuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyEsc}} {
		m, _, _ := newTestModel(t, 1)
		next, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("%q: expected quit command", msg.String())
		}
		if next.(Model).View() != "" {
			t.Errorf("%q: quitting model should render nothing", msg.String())
		}
	}
}

func TestModelResizeKeepsGame(t *testing.T) {
	m, game, _ := newTestModel(t, 10)
	m = update(m, spaceKey)
	for i := 0; i < 5; i++ {
		m = update(m, TickMsg{})
	}
	if !game.Lane().Bowler.Charging() {
		t.Fatal("bowler should be charging")
	}

	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if !game.Lane().Bowler.Charging() {
		t.Error("resize restarted the game")
	}
	if !strings.Contains(m.View(), "TOT") {
		t.Error("view should show the scorecard")
	}
}
