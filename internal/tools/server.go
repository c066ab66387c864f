// Package tools exposes Outlook operations as MCP tools.
//
// Handlers are thin: resolve a bearer token from the credential store,
// call Microsoft Graph, format the response as text. All of the hard
// lifecycle work lives in the auth and graph packages.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/custodia-labs/outlook-bridge/internal/auth"
	"github.com/custodia-labs/outlook-bridge/internal/config"
	"github.com/custodia-labs/outlook-bridge/internal/graph"
)

// Server wires the Outlook tool handlers onto an MCP server.
type Server struct {
	store  *auth.Store
	client *graph.Client
	cfg    *config.Config
	log    zerolog.Logger
}

// NewServer creates the tool server.
func NewServer(store *auth.Store, client *graph.Client, cfg *config.Config, log zerolog.Logger) *Server {
	return &Server{store: store, client: client, cfg: cfg, log: log}
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context, version string) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "outlook-bridge",
		Version: version,
	}, nil)

	s.registerMailTools(srv)
	s.registerCalendarTools(srv)
	s.registerFolderTools(srv)
	s.registerRuleTools(srv)
	s.registerAccountTools(srv)

	s.log.Info().Str("version", version).Msg("serving MCP over stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

// token resolves the active account's bearer token.
func (s *Server) token(ctx context.Context) (string, error) {
	tok, err := s.store.GetValidAccessToken(ctx)
	if err != nil {
		return "", err
	}
	return tok, nil
}

// textResult wraps plain text as a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// describeError rewrites low-level failures into the instruction the user
// actually needs.
func describeError(err error) error {
	switch {
	case errors.Is(err, auth.ErrAuthenticationRequired):
		return fmt.Errorf("not authenticated: use the 'authenticate' tool or run 'outlook-bridge login'")
	case errors.Is(err, graph.ErrUnauthorised):
		return fmt.Errorf("access token was rejected by Microsoft Graph: re-authenticate with the 'authenticate' tool")
	default:
		return err
	}
}
