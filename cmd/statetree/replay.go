package main

import (
	"github.com/aretw0/statetree/internal/cli"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Apply a YAML or JSON action script",
	Long: `Applies a recorded sequence of actions to a fresh tree, or to a stored
session with --session, and prints the resulting tree. Use "-" to read the
script from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		script, err := cli.LoadScript(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		var opts cli.ReplayOptions
		opts.Area, _ = cmd.Flags().GetString("area")
		opts.Session, _ = cmd.Flags().GetString("session")
		opts.Steps, _ = cmd.Flags().GetBool("steps")
		opts.Output, _ = cmd.Flags().GetString("output")

		return cli.Replay(cmd.Context(), cfg, script, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("area", "a", "", "Area to replay against (overrides the script)")
	replayCmd.Flags().StringP("session", "s", "", "Dispatch into this stored session")
	replayCmd.Flags().Bool("steps", false, "Print the slots changed by every action")
	replayCmd.Flags().StringP("output", "o", "table", "Output format: table, json or mermaid")
}
