package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configFileMode = 0600

type Config struct {
	DatabasePath  string `json:"database_path,omitempty"`
	DataDirectory string `json:"data_directory,omitempty"`

	// Embedding settings
	OllamaEndpoint     string `json:"ollama_endpoint"`
	EmbeddingModel     string `json:"embedding_model"`
	VectorDimensions   int    `json:"vector_dimensions"`
	EnableVectorSearch bool   `json:"enable_vector_search"`
	ChunkSize          int    `json:"chunk_size"`

	// LocalUser is the caller identity used by the CLI and MCP surfaces,
	// which run on behalf of a single local user.
	LocalUser string `json:"local_user"`

	// APIKeys maps bearer tokens to user identities for the HTTP API.
	APIKeys map[string]string `json:"api_keys,omitempty"`

	Debug bool `json:"debug"`
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		DatabasePath:  "", // Will be set to DataDirectory/notes.db
		DataDirectory: "", // Will be set to ~/.local/share/nkem-notes

		OllamaEndpoint:     "http://localhost:11434",
		EmbeddingModel:     "nomic-embed-text",
		VectorDimensions:   384,
		EnableVectorSearch: true,
		ChunkSize:          1000,

		LocalUser: "local",
		Debug:     false,
	}
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "nkem-notes", "config.json"), nil
}

func GetDefaultDataDirectory() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".nkem-notes")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "nkem-notes")
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// Return default config if file doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyFallbacks(&cfg)
		return &cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyFallbacks(&cfg)
	return &cfg, nil
}

// applyFallbacks fills empty fields with defaults so configs written by
// older versions keep loading.
func applyFallbacks(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.DataDirectory == "" {
		cfg.DataDirectory = GetDefaultDataDirectory()
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDirectory, "notes.db")
	}
	if cfg.OllamaEndpoint == "" {
		cfg.OllamaEndpoint = defaults.OllamaEndpoint
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaults.EmbeddingModel
	}
	if cfg.VectorDimensions == 0 {
		cfg.VectorDimensions = defaults.VectorDimensions
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaults.ChunkSize
	}
	if cfg.LocalUser == "" {
		cfg.LocalUser = defaults.LocalUser
	}
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if cfg.DataDirectory != "" {
		if err := os.MkdirAll(cfg.DataDirectory, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The config can carry API keys, so keep it owner-readable only
	if err := os.WriteFile(configPath, data, configFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func InitializeConfig(dataDir, ollamaEndpoint, localUser string) (*Config, error) {
	cfg := getDefaultConfig()

	if dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		cfg.DataDirectory = GetDefaultDataDirectory()
	}

	cfg.DatabasePath = filepath.Join(cfg.DataDirectory, "notes.db")

	if ollamaEndpoint != "" {
		cfg.OllamaEndpoint = ollamaEndpoint
	}
	if localUser != "" {
		cfg.LocalUser = localUser
	}

	if err := Save(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDirectory, "notes.db")
}

func (c *Config) GetOllamaAPIURL(endpoint string) string {
	return fmt.Sprintf("%s/api/%s", c.OllamaEndpoint, endpoint)
}
