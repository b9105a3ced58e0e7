package main

import (
	"fmt"
	"os"

	"github.com/aretw0/statetree/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "statetree",
	Short: "statetree tracks asynchronous request state in immutable trees",
	Long: `statetree keeps one immutable state tree per session and area, and
moves its slots through init, loading, success and error as request and
response actions are dispatched.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("store", "", "Store backend: memory, file or redis")
	flags.String("store-path", "", "Directory of the file store")
	flags.String("redis-addr", "", "Address of the redis store")
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	override := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	override("log-level", &cfg.LogLevel)
	override("store", &cfg.Store.Backend)
	override("store-path", &cfg.Store.Path)
	override("redis-addr", &cfg.Store.Redis.Address)
	if cmd.Flags().Lookup("listen") != nil {
		override("listen", &cfg.Listen)
	}

	// A file store without a path uses the default directory.
	if cfg.Store.Backend == config.BackendFile && cfg.Store.Path == "" {
		cfg.Store.Path = config.DefaultFilePath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
