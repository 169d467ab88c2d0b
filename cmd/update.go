package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a note",
	Long: `Replace a note's title and body.

Both fields are replaced in full; there is no partial merge with the
stored note. The note's embeddings are regenerated so search results
reflect the new content.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var (
	updateTitle string
	updateBody  string
)

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New note title (required)")
	updateCmd.Flags().StringVarP(&updateBody, "body", "b", "", "New note body (required)")
	_ = updateCmd.MarkFlagRequired("title")
	_ = updateCmd.MarkFlagRequired("body")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	ctx := localUserContext()

	// Ownership gate before the privileged refresh
	if _, err := noteService.GetNote(ctx, id); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	if err := notePipeline.RefreshNote(ctx, id, updateTitle, updateBody, appConfig.LocalUser); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	fmt.Printf("Updated note %d\n", id)
	return nil
}
