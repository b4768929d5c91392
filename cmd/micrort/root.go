package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wnxd/micrort/config"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "micrort",
	Short: "Load operator libraries onto a micro device and run them.",
	Long: `micrort places compiled operator libraries on a micro device, ` +
		`patches their runtime entry points and queues function calls ` +
		`through a device session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if configPath == "" {
			cfg = config.Default()
		} else if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path of the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.AddCommand(symbolsCmd, loadCmd, runCmd)
}
