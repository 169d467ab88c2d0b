package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new note",
	Long: `Add a new note with a title and body.

The body can be provided in two ways:
1. Via --body flag: nkem-notes add -t "Title" -b "Body"
2. Via stdin: echo "Body" | nkem-notes add -t "Title"

The note is chunked and embedded on creation so it is immediately
searchable with 'nkem-notes search'.`,
	RunE: runAdd,
}

var (
	addTitle string
	addBody  string
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Note title (required)")
	addCmd.Flags().StringVarP(&addBody, "body", "b", "", "Note body")
	_ = addCmd.MarkFlagRequired("title")
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addBody == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			scanner := bufio.NewScanner(os.Stdin)
			var lines []string
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			addBody = strings.Join(lines, "\n")
		}
	}

	if strings.TrimSpace(addBody) == "" {
		return fmt.Errorf("note body is required (use --body or pipe it via stdin)")
	}

	noteID, err := notePipeline.CreateNote(localUserContext(), addTitle, addBody, appConfig.LocalUser)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	fmt.Printf("Created note %d: %s\n", noteID, addTitle)
	return nil
}
