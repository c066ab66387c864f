package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MailFolder is a mail folder from Microsoft Graph.
type MailFolder struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	ParentFolderID   string `json:"parentFolderId"`
	UnreadItemCount  int    `json:"unreadItemCount"`
	TotalItemCount   int    `json:"totalItemCount"`
	ChildFolderCount int    `json:"childFolderCount"`
}

func (s *Server) registerFolderTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list-folders",
		Description: "List mail folders with unread counts",
	}, s.listFolders)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create-folder",
		Description: "Create a mail folder",
	}, s.createFolder)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "move-emails",
		Description: "Move emails to another folder",
	}, s.moveEmails)
}

type listFoldersInput struct {
	Count int `json:"count,omitempty" jsonschema:"maximum number of folders to return (default 100)"`
}

func (s *Server) listFolders(ctx context.Context, _ *mcp.CallToolRequest, in listFoldersInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}

	count := in.Count
	if count <= 0 {
		count = 100
	}

	query := map[string]string{"$top": "50"}
	result, err := s.client.FetchPaginated(ctx, token, http.MethodGet, "/me/mailFolders", query, count)
	if err != nil {
		return nil, nil, describeError(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d folder(s):\n\n", result.Count)
	for _, item := range result.Items {
		var f MailFolder
		if err := json.Unmarshal(item, &f); err != nil {
			return nil, nil, fmt.Errorf("decode folder: %w", err)
		}
		fmt.Fprintf(&sb, "- %s (%d unread / %d total)\n  ID: %s\n",
			f.DisplayName, f.UnreadItemCount, f.TotalItemCount, f.ID)
	}
	return textResult(sb.String()), nil, nil
}

type createFolderInput struct {
	Name     string `json:"name" jsonschema:"display name for the new folder"`
	ParentID string `json:"parentId,omitempty" jsonschema:"parent folder ID; omit for a top-level folder"`
}

func (s *Server) createFolder(ctx context.Context, _ *mcp.CallToolRequest, in createFolderInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.Name == "" {
		return nil, nil, fmt.Errorf("folder name is required")
	}

	path := "/me/mailFolders"
	if in.ParentID != "" {
		path = fmt.Sprintf("/me/mailFolders/%s/childFolders", in.ParentID)
	}

	body := map[string]string{"displayName": in.Name}
	raw, err := s.client.Call(ctx, token, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, nil, describeError(err)
	}

	var created MailFolder
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, nil, fmt.Errorf("decode folder: %w", err)
	}
	return textResult(fmt.Sprintf("Folder created: %s\nID: %s", created.DisplayName, created.ID)), nil, nil
}

type moveEmailsInput struct {
	IDs           []string `json:"ids" jsonschema:"message IDs to move"`
	DestinationID string   `json:"destinationId" jsonschema:"target folder ID (or a well-known name like archive)"`
}

func (s *Server) moveEmails(ctx context.Context, _ *mcp.CallToolRequest, in moveEmailsInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if len(in.IDs) == 0 || in.DestinationID == "" {
		return nil, nil, fmt.Errorf("message ids and destinationId are required")
	}

	body := map[string]string{"destinationId": in.DestinationID}
	moved := 0
	var failures []string
	for _, id := range in.IDs {
		path := fmt.Sprintf("/me/messages/%s/move", id)
		if _, err := s.client.Call(ctx, token, http.MethodPost, path, nil, body); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", id, describeError(err)))
			continue
		}
		moved++
	}

	out := fmt.Sprintf("Moved %d of %d email(s).", moved, len(in.IDs))
	if len(failures) > 0 {
		out += "\nFailures:\n" + strings.Join(failures, "\n")
	}
	return textResult(out), nil, nil
}
