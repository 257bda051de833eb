package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/assets"
	"github.com/ziadkadry99/manualview/internal/audio"
	"github.com/ziadkadry99/manualview/internal/config"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/source"
	"github.com/ziadkadry99/manualview/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open a manual in the terminal viewer",
	Long: `Opens a manual in the terminal. By default the manual is fetched from the
API server; --file reads a manual document from disk and reloads it when
it changes, and --bundled opens the manual compiled into the binary.`,
	RunE: runView,
}

func init() {
	viewCmd.Flags().Int("id", 0, "manual id (defaults to the document's id for --file and --bundled)")
	viewCmd.Flags().String("api", "", "API server URL (overrides viewer.api_url)")
	viewCmd.Flags().String("file", "", "read the manual from a JSON document")
	viewCmd.Flags().Bool("bundled", false, "open the bundled manual")
	viewCmd.Flags().Bool("mute", false, "start with narration off")
	viewCmd.Flags().Bool("no-watch", false, "do not reload --file documents when they change")
	viewCmd.Flags().String("style", "", "glamour style for text tabs (dark, light, notty)")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The viewer owns the terminal; logs go only to the configured file or
	// journal.
	logger, closer, err := setupLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	id, _ := cmd.Flags().GetInt("id")
	apiURL, _ := cmd.Flags().GetString("api")
	file, _ := cmd.Flags().GetString("file")
	bundled, _ := cmd.Flags().GetBool("bundled")
	mute, _ := cmd.Flags().GetBool("mute")
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	style, _ := cmd.Flags().GetString("style")

	if file != "" && bundled {
		return fmt.Errorf("--file and --bundled are mutually exclusive")
	}
	if apiURL == "" {
		apiURL = cfg.Viewer.APIURL
	}

	resolver := cfg.Resolver()
	opts := tui.Options{
		ManualID:     id,
		Resolver:     resolver,
		AudioCommand: cfg.Viewer.AudioCommand,
		AudioEnabled: cfg.Viewer.AudioEnabled && !mute,
		Style:        style,
		Logger:       logger,
	}

	var static *source.Static
	switch {
	case file != "":
		static, err = source.NewFile(file)
	case bundled:
		static, err = source.NewBundled()
	}
	if err != nil {
		return err
	}

	if static != nil {
		if opts.ManualID == 0 {
			opts.ManualID = static.ID()
		}
		local := localProber(cfg, resolver)
		opts.Loader = static
		opts.Prober = local
		opts.Locator = audio.FileLocator{Prober: local}
	} else {
		if opts.ManualID == 0 {
			return fmt.Errorf("--id is required when viewing from the API server")
		}
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		opts.Loader = source.Remote(apiURL)
		opts.Prober = assets.HTTPProber{BaseURL: apiURL}
		opts.Locator = audio.HTTPLocator{BaseURL: apiURL, CacheDir: filepath.Join(cacheDir, "manualview")}
	}

	model := tui.New(opts)
	defer model.Close()
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if static != nil && static.Path() != "" && !noWatch {
		go func() {
			err := static.Watch(ctx, source.WatchOptions{Logger: logger}, func(m *manual.Manual, err error) {
				program.Send(tui.ReplacedMsg{Manual: m, Err: err})
			})
			if err != nil {
				logger.Warn("watching manual failed", "path", static.Path(), "error", err)
			}
		}()
	}

	_, err = program.Run()
	return err
}

// localProber checks assets in the configured image and audio directories.
func localProber(cfg *config.Config, r assets.Resolver) assets.FileProber {
	return assets.FileProber{Roots: map[string]string{
		r.ImageBase: cfg.Assets.ImageDir,
		r.AudioBase: cfg.Assets.AudioDir,
	}}
}
