package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/platform/tui"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

var (
	flagModel       string
	flagLimit       int
	flagInteractive bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the best games",
	Long: `Display the best stored games and overall statistics.

Examples:
  bowling scores
  bowling scores --model official
  bowling scores --limit 20
  bowling scores -i`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagModel, "model", "", "Only games scored with this model: additive, official")
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of games to show")
	scoresCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Open the interactive scoreboard")
}

func runScores(cmd *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	if flagInteractive {
		runScoreboard(store, tui.TabTopScores)
		return
	}

	scores, err := store.TopScores(flagModel, flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
		return
	}

	title := "High Scores"
	if flagModel != "" {
		title += " (" + flagModel + ")"
	}
	fmt.Println(title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No games recorded yet.")
		fmt.Println()
		fmt.Println("Play 'bowling play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-5s  %-12s  %-8s  %s\n", "Rank", "Score", "Player", "Model", "Date")
	fmt.Printf("  %-4s  %-5s  %-12s  %-8s  %s\n", "----", "-----", "------", "-----", "----")
	for i, g := range scores {
		fmt.Printf("  %-4d  %-5d  %-12s  %-8s  %s\n",
			i+1, g.Total, g.Player, g.Model, g.CreatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := store.GetStats()
	if err != nil {
		return
	}
	fmt.Println()
	printStats(stats)
}

func printStats(s *storage.Stats) {
	fmt.Printf("Games: %d  Best: %d  Average: %.1f\n", s.Games, s.HighScore, s.AvgScore)
	fmt.Printf("Strikes: %d  Spares: %d  Gutter balls: %d\n", s.Strikes, s.Spares, s.GutterBalls)
	if len(s.Achievements) == 0 {
		return
	}

	kinds := make([]bowling.AchievementKind, 0, len(s.Achievements))
	for k := range s.Achievements {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Println("Achievements:")
	for _, k := range kinds {
		fmt.Printf("  %-14s %d\n", k.Title(), s.Achievements[k])
	}
}

func mustOpenStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening games database: %v\n", err)
		os.Exit(1)
	}
	return store
}
