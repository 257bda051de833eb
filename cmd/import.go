package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/importer"
	"github.com/ziadkadry99/manualview/internal/progress"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import converted manual documents into the library",
	Long: `Walks dir (default: the current directory) for converted manual JSON files
matching import.include, parses them and stores every manual whose source
document is not in the library yet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "parse documents without storing them")
	importCmd.Flags().StringSlice("include", nil, "glob patterns to include (overrides import.include)")
	importCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude (added to import.exclude)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	include := cfg.Import.Include
	if v, _ := cmd.Flags().GetStringSlice("include"); len(v) > 0 {
		include = v
	}
	exclude := cfg.Import.Exclude
	if v, _ := cmd.Flags().GetStringSlice("exclude"); len(v) > 0 {
		exclude = append(append([]string(nil), exclude...), v...)
	}

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	im := importer.New(store, importer.Options{
		Include:     include,
		Exclude:     exclude,
		Concurrency: cfg.Import.Concurrency,
		DryRun:      dryRun,
		Reporter:    progress.NewReporter("Importing manuals"),
		Logger:      logger,
	})
	res, err := im.Run(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("importing manuals: %w", err)
	}

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d manual(s), skipped %d already in the library, %d failed.\n", verb, res.Imported, res.Skipped, res.Failed)
	for _, o := range res.Outcomes {
		if o.Err != nil {
			fmt.Printf("  %s: %v\n", o.File, o.Err)
		}
	}
	if res.Imported > 0 && !dryRun && cfg.Embedding.Enabled {
		fmt.Println("Run `manualview index` to make the new manuals searchable.")
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d document(s) could not be imported", res.Failed)
	}
	return nil
}
