package main

import (
	"github.com/aretw0/statetree/internal/cli"
	"github.com/spf13/cobra"
)

var areasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List the served areas",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.ListAreas(cfg, cmd.OutOrStdout())
	},
}

var areasGraphCmd = &cobra.Command{
	Use:   "graph <area>",
	Short: "Print the rule table of an area as a Mermaid graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.PrintAreaGraph(cfg, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(areasCmd)
	areasCmd.AddCommand(areasGraphCmd)
}
