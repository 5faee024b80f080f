package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-bowling/internal/core"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
	"github.com/vovakirdan/tui-bowling/internal/platform/tui"
	"github.com/vovakirdan/tui-bowling/internal/registry"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

var flagPlayer string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Bowl a game",
	Long: `Start a ten-frame game of bowling.

Controls:
  A/Left, D/Right  - Move the bowler
  Space            - Start charging, press again to release
  P                - Pause
  R                - Restart (after game over)
  Ctrl+S           - Save a screenshot
  Q/Esc/Ctrl+C     - Quit

Difficulty options:
  easy   - Steady aim, grows harder over the frames
  normal - Some wobble from the start
  hard   - Noticeable wobble and speed jitter
  fixed  - No progression, stays at config's initial level

Examples:
  bowling play
  bowling play --difficulty easy
  bowling play --player alice
  bowling play --config ./my-lane.yaml`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Name recorded with the game (default: $USER)")
}

func runPlay(cmd *cobra.Command, args []string) {
	cfg := core.DefaultConfig()
	cfg.TickRate = flagFPS
	cfg.Seed = flagSeed

	// Get terminal size
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}

	if flagDebug {
		if f, err := openDebugLog(); err == nil {
			defer f.Close()
			bowlgame.SetLogger(newLogger(f, "bowling"))
		}
	}

	game, err := registry.Create(bowlgame.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating game: %v\n", err)
		os.Exit(1)
	}

	// Open storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open games database: %v\n", err)
		// Continue without storage - game still works
		store = nil
	}

	runErr := tui.Run(game, store, playerName(), cfg)

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}
}

// openDebugLog opens ~/.bowling/debug.log for appending. The terminal
// belongs to the game while it runs, so logs cannot go to stderr.
func openDebugLog() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".bowling")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

func playerName() string {
	if flagPlayer != "" {
		return flagPlayer
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}
