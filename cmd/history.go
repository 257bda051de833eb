package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/llm"
	"github.com/ziadkadry99/manualview/internal/qa"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and their estimated cost",
	Long:  `Lists the most recent questions from the question log with token usage and the estimated API cost for the configured model.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of entries to show")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	database, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := qa.NewLog(database).Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No questions asked yet.")
		return nil
	}

	var totalIn, totalOut int
	for _, e := range entries {
		status := "ok"
		if e.Error != "" {
			status = "error: " + e.Error
		}
		fmt.Printf("%s  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Question)
		fmt.Printf("    %s, %d in / %d out tokens, %s\n", e.Provider, e.InputTokens, e.OutputTokens, status)
		totalIn += e.InputTokens
		totalOut += e.OutputTokens
	}

	fmt.Println()
	fmt.Printf("Questions:       %d\n", len(entries))
	fmt.Printf("Input tokens:    %d\n", totalIn)
	fmt.Printf("Output tokens:   %d\n", totalOut)
	fmt.Printf("Estimated cost:  $%.4f (%s)\n", llm.EstimateCost(cfg.LLM.Model, totalIn, totalOut), cfg.LLM.Model)
	return nil
}
