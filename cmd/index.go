package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/progress"
	"github.com/ziadkadry99/manualview/internal/search"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the passage index used for semantic search",
	Long: `Embeds every step, list item and text passage in the library and writes the
index to embedding.index_path. Questions and the MCP search tool use the
index when embedding.enabled is set.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	idx, err := search.NewIndex(embedder)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	all, err := store.All(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("The library is empty. Run `manualview import` first.")
		return nil
	}

	rep := progress.NewReporter("Indexing manuals")
	rep.Start(len(all))
	for i, m := range all {
		if err := idx.AddManual(ctx, m); err != nil {
			rep.Finish()
			return fmt.Errorf("indexing manual %d: %w", m.ID, err)
		}
		rep.Update(i+1, m.Title)
	}
	rep.Finish()

	if err := idx.Persist(cfg.Embedding.IndexPath); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	logger.Info("passage index written", "path", cfg.Embedding.IndexPath, "manuals", len(all), "passages", idx.Count())
	fmt.Printf("Indexed %d passage(s) from %d manual(s) into %s\n", idx.Count(), len(all), cfg.Embedding.IndexPath)
	if !cfg.Embedding.Enabled {
		fmt.Println("Set embedding.enabled to use the index for questions.")
	}
	return nil
}
