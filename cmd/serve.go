package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskymind/nkem-ai-note/internal/api"
	"github.com/riskymind/nkem-ai-note/internal/auth"
	"github.com/riskymind/nkem-ai-note/internal/logger"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server exposing the notes service as REST endpoints.

Callers authenticate with a bearer token from the api_keys section of
the configuration file; each token maps to a user identity that owns
the notes it creates. Endpoints:

- GET    /api/v1/notes             list the caller's notes
- POST   /api/v1/notes             create a note (embedded on write)
- GET    /api/v1/notes/{id}        fetch one note
- PUT    /api/v1/notes/{id}        replace title/body
- PUT    /api/v1/notes/{id}/refresh  replace title/body and re-embed
- DELETE /api/v1/notes/{id}        delete a note and its embeddings
- POST   /api/v1/notes/search      semantic search
- GET    /api/v1/health            health check

Examples:
  nkem-notes serve                              # localhost:8080
  nkem-notes serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the server to")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to bind the server to")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Initializing HTTP API server...")

	verifier := auth.NewStaticVerifier(appConfig.APIKeys)
	apiServer := api.NewAPIServer(appConfig, noteService, notePipeline, verifier)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start(serveHost, servePort)
	}()

	fmt.Printf("Serving notes API on http://%s:%d/api/v1\n", serveHost, servePort)
	if len(appConfig.APIKeys) == 0 {
		logger.Warn("No api_keys configured; all requests will be anonymous")
	}

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down...", sig)
		if err := apiServer.Stop(); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
