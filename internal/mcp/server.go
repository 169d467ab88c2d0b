package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/riskymind/nkem-ai-note/internal/auth"
	"github.com/riskymind/nkem-ai-note/internal/config"
	"github.com/riskymind/nkem-ai-note/internal/notes"
	"github.com/riskymind/nkem-ai-note/internal/pipeline"
)

// NotesServer exposes the notes service as MCP tools over stdio. All
// tools act as the configured local user.
type NotesServer struct {
	cfg       *config.Config
	service   *notes.Service
	pipeline  *pipeline.Pipeline
	mcpServer *server.MCPServer
}

func NewNotesServer(cfg *config.Config, service *notes.Service, pl *pipeline.Pipeline) *NotesServer {
	ns := &NotesServer{
		cfg:      cfg,
		service:  service,
		pipeline: pl,
	}

	ns.mcpServer = server.NewMCPServer(
		"nkem-notes",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	ns.registerTools()

	return ns
}

func (s *NotesServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server over stdin/stdout until EOF.
func (s *NotesServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// callerContext attaches the local user identity to the tool context.
func (s *NotesServer) callerContext(ctx context.Context) context.Context {
	return auth.WithUser(ctx, s.cfg.LocalUser)
}

func (s *NotesServer) registerTools() {
	addNoteTool := mcp.NewTool("add_note",
		mcp.WithDescription("Create a new note with semantic search embeddings"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The title of the note"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("The body text of the note"),
		),
	)
	s.mcpServer.AddTool(addNoteTool, s.handleAddNote)

	listNotesTool := mcp.NewTool("list_notes",
		mcp.WithDescription("List the user's notes, newest first"),
	)
	s.mcpServer.AddTool(listNotesTool, s.handleListNotes)

	getNoteTool := mcp.NewTool("get_note",
		mcp.WithDescription("Get a specific note by ID"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to retrieve"),
		),
	)
	s.mcpServer.AddTool(getNoteTool, s.handleGetNote)

	updateNoteTool := mcp.NewTool("update_note",
		mcp.WithDescription("Replace a note's title and body and refresh its embeddings"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to update"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The new title"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("The new body text"),
		),
	)
	s.mcpServer.AddTool(updateNoteTool, s.handleUpdateNote)

	deleteNoteTool := mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note and its embeddings"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to delete"),
		),
	)
	s.mcpServer.AddTool(deleteNoteTool, s.handleDeleteNote)

	searchNotesTool := mcp.NewTool("search_notes",
		mcp.WithDescription("Search the user's notes by semantic similarity"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
	)
	s.mcpServer.AddTool(searchNotesTool, s.handleSearchNotes)
}

func (s *NotesServer) handleAddNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	noteID, err := s.pipeline.CreateNote(s.callerContext(ctx), title, body, s.cfg.LocalUser)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created note %d", noteID)), nil
}

func (s *NotesServer) handleListNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.GetUserNotes(s.callerContext(ctx))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode notes: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *NotesServer) handleGetNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := s.service.GetNote(s.callerContext(ctx), int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
	}

	data, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode note: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *NotesServer) handleUpdateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	callerCtx := s.callerContext(ctx)

	// Ownership gate before the privileged refresh
	if _, err := s.service.GetNote(callerCtx, int64(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update note: %v", err)), nil
	}

	if err := s.pipeline.RefreshNote(callerCtx, int64(id), title, body, s.cfg.LocalUser); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update note: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Updated note %d", int64(id))), nil
}

func (s *NotesServer) handleDeleteNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.pipeline.DeleteNote(s.callerContext(ctx), int64(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete note: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted note %d", int64(id))), nil
}

func (s *NotesServer) handleSearchNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := request.GetInt("limit", 10)

	result, err := s.pipeline.SearchNotes(s.callerContext(ctx), query, s.cfg.LocalUser, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
