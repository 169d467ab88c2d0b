package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskymind/nkem-ai-note/internal/logger"
	"github.com/riskymind/nkem-ai-note/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

The server exposes note tools (add_note, list_notes, get_note,
update_note, delete_note, search_notes) acting as the configured local
user, for use from MCP-capable clients.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger.Info("Starting MCP server on stdio")

	notesServer := mcp.NewNotesServer(appConfig, noteService, notePipeline)
	if err := notesServer.ServeStdio(); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
