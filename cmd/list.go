package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes",
	Long:  `List your notes with their ID, title, and creation date, newest first.`,
	RunE:  runList,
}

var listShort bool

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listShort, "short", "s", false, "Show only ID and title")
}

func runList(cmd *cobra.Command, args []string) error {
	result, err := noteService.GetUserNotes(localUserContext())
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if len(result) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	fmt.Printf("Found %d notes:\n\n", len(result))

	for _, note := range result {
		if listShort {
			fmt.Printf("[%d] %s\n", note.ID, note.Title)
			continue
		}

		fmt.Printf("ID: %d\n", note.ID)
		fmt.Printf("Title: %s\n", note.Title)
		fmt.Printf("Created: %s\n", formatTime(note.CreatedAt))

		preview := note.Body
		if len(preview) > 100 {
			preview = preview[:97] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Printf("Preview: %s\n", preview)
		fmt.Println(strings.Repeat("-", 60))
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
