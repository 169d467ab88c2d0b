package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskymind/nkem-ai-note/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Never print API keys
	redacted := *cfg
	if len(redacted.APIKeys) > 0 {
		redacted.APIKeys = map[string]string{"<redacted>": fmt.Sprintf("%d key(s)", len(cfg.APIKeys))}
	}

	data, err := json.MarshalIndent(&redacted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Configuration file: %s\n\n%s\n", configPath, data)
	return nil
}
