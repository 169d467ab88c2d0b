package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskymind/nkem-ai-note/internal/auth"
	"github.com/riskymind/nkem-ai-note/internal/config"
	"github.com/riskymind/nkem-ai-note/internal/database"
	"github.com/riskymind/nkem-ai-note/internal/embeddings"
	"github.com/riskymind/nkem-ai-note/internal/logger"
	"github.com/riskymind/nkem-ai-note/internal/models"
	"github.com/riskymind/nkem-ai-note/internal/notes"
	"github.com/riskymind/nkem-ai-note/internal/pipeline"
	"github.com/riskymind/nkem-ai-note/internal/search"
)

var (
	db           *database.DB
	noteService  *notes.Service
	notePipeline *pipeline.Pipeline
	appConfig    *config.Config
	debugFlag    bool
	Version      = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "nkem-notes",
	Short:   "A note service with embedding-backed semantic search",
	Version: Version,
	Long: `nkem-notes manages user-owned text notes backed by vector embeddings
for semantic search. Notes can be managed from this CLI, over the HTTP
API ('serve'), or through MCP tools ('mcp').

First time users should run 'nkem-notes init' to set up the configuration.`,
}

func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initAppConfig)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func initAppConfig() {
	// Skip initialization for init and config commands
	if len(os.Args) > 1 && (os.Args[1] == "init" || os.Args[1] == "config") {
		return
	}

	var err error
	appConfig, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please run 'nkem-notes init' to set up the configuration.\n")
		os.Exit(1)
	}

	if debugFlag || appConfig.Debug {
		logger.SetDebugMode(true)
		logger.Debug("Data directory: %s", appConfig.DataDirectory)
		logger.Debug("Ollama endpoint: %s", appConfig.OllamaEndpoint)
		logger.Debug("Embedding model: %s", appConfig.EmbeddingModel)
		logger.Debug("Vector dimensions: %d", appConfig.VectorDimensions)
		logger.Debug("Local user: %s", appConfig.LocalUser)
	}

	db, err = database.New(appConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}

	noteRepo := models.NewNoteRepository(db.Conn())
	embeddingRepo := models.NewEmbeddingRepository(db.Conn())
	noteService = notes.NewService(db.Conn(), noteRepo, embeddingRepo)

	embedder := embeddings.NewOllamaEmbedding(appConfig)
	index := search.NewVectorIndex(db.Conn(), db.VecAvailable())
	notePipeline = pipeline.New(appConfig, noteService, embedder, index)
}

// localUserContext returns a context authenticated as the configured
// local user. CLI commands always run on that user's behalf.
func localUserContext() context.Context {
	return auth.WithUser(context.Background(), appConfig.LocalUser)
}
