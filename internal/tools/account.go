package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/outlook-bridge/internal/auth"
)

func (s *Server) registerAccountTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list-accounts",
		Description: "List connected Outlook accounts and which one is active",
	}, s.listAccounts)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "set-active-account",
		Description: "Switch the account used by all other tools",
	}, s.setActiveAccount)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "authenticate",
		Description: "Get the sign-in URL for connecting an Outlook account",
	}, s.authenticate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "check-auth-status",
		Description: "Check whether a usable access token is available",
	}, s.checkAuthStatus)
}

type emptyInput struct{}

func (s *Server) listAccounts(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	accounts, err := s.store.Accounts()
	if err != nil {
		return nil, nil, describeError(err)
	}
	if len(accounts) == 0 {
		return textResult("No accounts connected. Use the 'authenticate' tool to sign in."), nil, nil
	}

	active, err := s.store.ActiveAccount()
	if err != nil {
		return nil, nil, describeError(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d account(s):\n", len(accounts))
	for _, id := range accounts {
		marker := " "
		if id == active {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s\n", marker, id)
	}
	return textResult(sb.String()), nil, nil
}

type setActiveAccountInput struct {
	Account string `json:"account" jsonschema:"account identifier from list-accounts"`
}

func (s *Server) setActiveAccount(_ context.Context, _ *mcp.CallToolRequest, in setActiveAccountInput) (*mcp.CallToolResult, any, error) {
	if in.Account == "" {
		return nil, nil, fmt.Errorf("account identifier is required")
	}
	if err := s.store.SetActiveAccount(in.Account); err != nil {
		return nil, nil, describeError(err)
	}
	return textResult(fmt.Sprintf("Active account is now %s.", in.Account)), nil, nil
}

func (s *Server) authenticate(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if !s.cfg.HasClientCredentials() {
		return nil, nil, fmt.Errorf("no OAuth client configured: set %s (and usually %s)", "OUTLOOK_CLIENT_ID", "OUTLOOK_CLIENT_SECRET")
	}

	url := auth.BuildAuthURL(s.cfg, auth.NewState())
	text := fmt.Sprintf(
		"Run 'outlook-bridge login' in a terminal to sign in, or open this URL in a browser:\n\n%s\n\nThe login command runs a local callback server on %s to complete the flow.",
		url, s.cfg.RedirectURI)
	return textResult(text), nil, nil
}

func (s *Server) checkAuthStatus(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if _, err := s.store.GetValidAccessToken(ctx); err != nil {
		return textResult("Not authenticated. Use the 'authenticate' tool to sign in."), nil, nil
	}
	active, _ := s.store.ActiveAccount()
	if active == "" {
		return textResult("Authenticated."), nil, nil
	}
	return textResult(fmt.Sprintf("Authenticated as %s.", active)), nil, nil
}
