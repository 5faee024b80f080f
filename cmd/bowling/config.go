package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-bowling/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default bowling config",
	Long: `Print the default bowling config as YAML. Save it to
~/.bowling/configs/bowling.yaml (or pass it with --config) to customize
the game. Keys left out of a custom file keep their default values.

Examples:
  bowling config > ~/.bowling/configs/bowling.yaml
  bowling play --config ./my-lane.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) {
	//nolint:errcheck // Nothing to do if stdout is gone
	os.Stdout.Write(config.DefaultYAML())
}
