package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/statetree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of statetree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statetree version %s\n", strings.TrimSpace(statetree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
