package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/client"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the manual library",
	Long: `Answers a natural-language question from the manuals in the library using
the configured language model. With --api the question is sent to a running
server instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("api", "", "ask a running server at this URL")
	askCmd.Flags().Bool("raw", false, "print the answer without terminal formatting")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	question := strings.Join(args, " ")
	apiURL, _ := cmd.Flags().GetString("api")
	raw, _ := cmd.Flags().GetBool("raw")
	ctx := cmd.Context()

	var answer string
	var sources []string
	if apiURL != "" {
		answer, err = client.New(apiURL, nil).Ask(ctx, question)
		if err != nil {
			return err
		}
	} else {
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		engine := buildEngine(cfg, database, store, loadIndex(cfg, logger), logger)
		ans, err := engine.Ask(ctx, question)
		if err != nil {
			return err
		}
		answer = ans.Answer
		for _, p := range ans.Sources {
			sources = append(sources, p.ManualTitle+" / "+p.TabTitle)
		}
		if ans.Truncated {
			logger.Warn("library context was truncated to fit qa.max_knowledge_chars")
		}
	}

	if len(sources) > 0 {
		answer += "\n\n**Sources:**\n\n- " + strings.Join(sources, "\n- ") + "\n"
	}
	if !raw {
		if out, err := glamour.Render(answer, "auto"); err == nil {
			answer = out
		}
	}
	fmt.Println(strings.TrimRight(answer, "\n"))
	return nil
}
