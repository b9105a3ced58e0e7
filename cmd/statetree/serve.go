package main

import (
	"github.com/aretw0/statetree/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves every area over a JSON API with per-session SSE diffs and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		return cli.Serve(cfg, cli.ServeOptions{Quiet: quiet}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
