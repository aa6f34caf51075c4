// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes a converted corpus to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/crosslink"
	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/render"
)

// Server wraps the MCP server with corpus tools.
type Server struct {
	mcp       *server.MCPServer
	notebooks []*models.Notebook
	store     *crosslink.Store
	logger    *slog.Logger
}

// New creates an MCP server over a loaded corpus and its populated
// crosslink store.
func New(notebooks []*models.Notebook, store *crosslink.Store, logger *slog.Logger) *Server {
	s := &Server{notebooks: notebooks, store: store, logger: logger}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notebooks",
		mcp.WithDescription("List every notebook in the export with its note count."),
	), s.listNotebooks)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Render a note as readable plain text with internal links resolved."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Corpus-relative archive path (e.g. Notebook/Note.enex)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a raw internal reference token (evernote://...) to the note that owns it."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Raw reference token from a note's content")),
	), s.resolveLink)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotebooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var lines []string
	for _, nb := range s.notebooks {
		lines = append(lines, fmt.Sprintf("%s (%d notes)", nb.Dir, len(nb.Notes)))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notebooks"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note := s.findNote(path)
	if note == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}

	rules := render.Rules(s.store, note, ".txt", render.TodoMarker, s.logger)
	enml.Remap(note.Content, rules, s.logger)

	out, err := render.Text(note)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	key, value, err := s.store.Resolve(ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"key":      key,
		"value":    value,
		"resolved": value != "",
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// findNote matches by full archive path or identity key.
func (s *Server) findNote(path string) *models.Note {
	for _, nb := range s.notebooks {
		for _, n := range nb.Notes {
			if n.Path == path || n.Key() == path {
				return n
			}
		}
	}
	return nil
}
