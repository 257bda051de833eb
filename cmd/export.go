package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/export"
	"github.com/ziadkadry99/manualview/internal/manual"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library as knowledge JSON or structured text",
	Long: `Exports manuals for use outside the viewer. The json format writes one
knowledge document holding every manual (the context sent with questions).
The markdown format writes one structured text file per manual into --out.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "json", "output format: json or markdown")
	exportCmd.Flags().StringP("out", "o", "", "output file for json (default stdout) or directory for markdown (default exports)")
	exportCmd.Flags().Int("id", 0, "export a single manual")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, closer, err := setupLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	id, _ := cmd.Flags().GetInt("id")

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	var list []*manual.Manual
	if id != 0 {
		m, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		list = []*manual.Manual{m}
	} else if list, err = store.All(ctx); err != nil {
		return err
	}

	switch format {
	case "json":
		var w io.Writer = os.Stdout
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}
		if err := export.WriteKnowledge(w, list); err != nil {
			return fmt.Errorf("writing knowledge: %w", err)
		}
		if w != os.Stdout {
			fmt.Fprintf(os.Stderr, "Exported %d manual(s) to %s\n", len(list), out)
		}
	case "markdown":
		if out == "" {
			out = "exports"
		}
		n, err := export.WriteMarkdownDir(out, list)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d manual(s) to %s\n", n, out)
	default:
		return fmt.Errorf("unknown format %q: must be json or markdown", format)
	}
	return nil
}
