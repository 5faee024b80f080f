package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/platform/tui"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent games frame by frame",
	Long: `Display the most recent games with their scorecards.

Examples:
  bowling history
  bowling history --limit 5
  bowling history -i`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of games to show")
	historyCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Open the interactive scoreboard")
}

func runHistory(cmd *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	if flagInteractive {
		runScoreboard(store, tui.TabHistory)
		return
	}

	games, err := store.RecentGames(flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving games: %v\n", err)
		return
	}
	if len(games) == 0 {
		fmt.Println("No games recorded yet.")
		return
	}

	for _, g := range games {
		fmt.Printf("%s  %-12s  %-8s  %3d", g.CreatedAt.Format("2006-01-02 15:04"), g.Player, g.Model, g.Total)
		if g.LaneCode != "" {
			fmt.Printf("  lane %s", g.LaneCode)
		}
		fmt.Println()
		fmt.Printf("  %s\n", scorecard(g.Frames))
	}
}

// scorecard renders frames as "X:20 | 7/:39 | 9-:48".
func scorecard(frames []storage.FrameRecord) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		rec := bowling.FrameRecord{Pins: f.Pins, Rolls: f.Rolls, Mark: f.Mark}
		parts[i] = fmt.Sprintf("%s:%d", strings.Join(rec.RollSymbols(10), ""), f.Score)
	}
	return strings.Join(parts, " | ")
}

func runScoreboard(store *storage.Store, tab tui.ScoreTab) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	if err := tui.RunScoreboard(store, tab, width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error running scoreboard: %v\n", err)
	}
}
