package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/config"
	"github.com/ziadkadry99/manualview/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "manualview",
	Short: "Browse, narrate and query product manuals",
	Long: `manualview serves a library of converted product manuals. Each manual is
split into tabs of lists, illustrated steps and free text, with optional
narration per step. Manuals can be read in the browser or the terminal,
imported from converter output and queried in natural language.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "manualview.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setupLogger builds the process logger from cfg and installs it as the
// slog default. console receives text records; nil means stderr.
func setupLogger(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, closer, err := logging.New(logging.Options{
		Level:   level,
		File:    cfg.Log.File,
		Journal: cfg.Log.Journal,
		Writer:  console,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}
