package cmd

import (
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/manualview/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing tools to list, read, search and ask questions about the manual library.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// stdout carries the protocol, so logs go to stderr only.
		logger, closer, err := setupLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer closer.Close()

		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		idx := loadIndex(cfg, logger)
		engine := buildEngine(cfg, database, store, idx, logger)

		mcpserver.Version = Version
		logger.Info("manualview MCP server started on stdio", "database", database.Path(), "semantic_search", idx != nil)

		srv := mcpserver.NewServer(store, idx, engine)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
