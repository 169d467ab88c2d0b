package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by semantic similarity",
	Long: `Search your notes using vector embeddings.

The query is embedded with the configured model and matched against the
stored note chunks; the notes behind the best-matching chunks are
returned, deduplicated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	result, err := notePipeline.SearchNotes(localUserContext(), query, appConfig.LocalUser, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(result) == 0 {
		fmt.Println("No matching notes found.")
		return nil
	}

	fmt.Printf("Found %d matching notes:\n\n", len(result))
	for _, note := range result {
		fmt.Printf("[%d] %s\n", note.ID, note.Title)

		preview := note.Body
		if len(preview) > 100 {
			preview = preview[:97] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Printf("    %s\n", preview)
	}

	return nil
}
