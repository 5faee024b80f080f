// bowling is a ten-pin bowling game for the terminal.
//
// Usage:
//
//	bowling play             - Bowl a game
//	bowling scores           - Show the best games
//	bowling history          - Show recent games frame by frame
//	bowling serve            - Host lanes over SSH and HTTP
//	bowling config           - Print the default config
//
// Global flags:
//
//	--fps <rate>         - Set tick rate (default: 60)
//	--seed <value>       - Set RNG seed for reproducible gameplay
//	--db <path>          - Set database path (default: ~/.bowling/bowling.db)
//	--config <path>      - Load a custom bowling config YAML
//	--difficulty <name>  - Difficulty preset: easy, normal, hard, fixed
//	--debug              - Log engine events
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagDebug      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bowling",
	Short: "TUI Bowling - Ten-pin bowling in your terminal",
	Long: `TUI Bowling is a ten-pin bowling game played in the terminal.
Aim, charge and release the ball; the scorecard keeps itself.

Available commands:
  play     - Bowl a game
  scores   - View the best games
  history  - View recent games frame by frame
  serve    - Host lanes over SSH with web spectators
  config   - Print the default config YAML

Examples:
  bowling play
  bowling play --difficulty hard
  bowling scores --model official
  bowling serve --ssh :2222 --http :8080`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		bowlgame.SetConfigPath(flagConfig)
		bowlgame.SetDifficultyPreset(flagDifficulty)
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.bowling/bowling.db", "Path to games database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom bowling config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log engine events (play writes them to ~/.bowling/debug.log)")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger returns a timestamped logger. Debug output only appears with --debug.
func newLogger(w io.Writer, prefix string) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if flagDebug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}
