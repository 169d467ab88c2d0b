package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskymind/nkem-ai-note/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize nkem-notes configuration",
	Long: `Initialize the nkem-notes configuration.
This command sets up the configuration file and creates necessary directories.`,
	RunE: runInit,
}

var (
	initDataDir        string
	initOllamaEndpoint string
	initLocalUser      string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "Data directory for storing the notes database")
	initCmd.Flags().StringVar(&initOllamaEndpoint, "ollama-endpoint", "", "Ollama API endpoint (e.g., http://localhost:11434)")
	initCmd.Flags().StringVar(&initLocalUser, "user", "", "Local user identity for the CLI and MCP surfaces")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Configuration already exists at: %s\n", configPath)
		fmt.Print("Do you want to overwrite it? (y/N): ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Configuration initialization cancelled.")
			return nil
		}
	}

	cfg, err := config.InitializeConfig(initDataDir, initOllamaEndpoint, initLocalUser)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Printf("Data directory: %s\n", cfg.DataDirectory)
	fmt.Printf("Database path: %s\n", cfg.GetDatabasePath())
	fmt.Printf("Ollama endpoint: %s\n", cfg.OllamaEndpoint)
	fmt.Printf("Local user: %s\n", cfg.LocalUser)

	return nil
}
