package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const rulesPath = "/me/mailFolders/inbox/messageRules"

// MessageRule is an inbox rule from Microsoft Graph.
type MessageRule struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Sequence    int             `json:"sequence"`
	IsEnabled   bool            `json:"isEnabled"`
	Conditions  *RuleConditions `json:"conditions,omitempty"`
	Actions     *RuleActions    `json:"actions,omitempty"`
}

// RuleConditions is the subset of rule predicates the bridge manages.
type RuleConditions struct {
	SenderContains  []string    `json:"senderContains,omitempty"`
	SubjectContains []string    `json:"subjectContains,omitempty"`
	FromAddresses   []Recipient `json:"fromAddresses,omitempty"`
}

// RuleActions is the subset of rule actions the bridge manages.
type RuleActions struct {
	MoveToFolder string `json:"moveToFolder,omitempty"`
	MarkAsRead   bool   `json:"markAsRead,omitempty"`
	Delete       bool   `json:"delete,omitempty"`
}

func (s *Server) registerRuleTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list-rules",
		Description: "List inbox rules",
	}, s.listRules)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create-rule",
		Description: "Create an inbox rule that files matching mail into a folder",
	}, s.createRule)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete-rule",
		Description: "Delete an inbox rule",
	}, s.deleteRule)
}

type listRulesInput struct{}

func (s *Server) listRules(ctx context.Context, _ *mcp.CallToolRequest, _ listRulesInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}

	result, err := s.client.FetchPaginated(ctx, token, http.MethodGet, rulesPath, nil, 0)
	if err != nil {
		return nil, nil, describeError(err)
	}

	if result.Count == 0 {
		return textResult("No inbox rules."), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rule(s):\n\n", result.Count)
	for _, item := range result.Items {
		var r MessageRule
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, nil, fmt.Errorf("decode rule: %w", err)
		}
		state := "enabled"
		if !r.IsEnabled {
			state = "disabled"
		}
		fmt.Fprintf(&sb, "- [%d] %s (%s)\n  ID: %s\n", r.Sequence, r.DisplayName, state, r.ID)
	}
	return textResult(sb.String()), nil, nil
}

type createRuleInput struct {
	Name            string   `json:"name" jsonschema:"display name for the rule"`
	FromAddresses   []string `json:"fromAddresses,omitempty" jsonschema:"match senders by address"`
	SubjectContains []string `json:"subjectContains,omitempty" jsonschema:"match words in the subject"`
	MoveToFolderID  string   `json:"moveToFolderId" jsonschema:"folder ID that matching mail is filed into"`
	Sequence        int      `json:"sequence,omitempty" jsonschema:"rule execution order (default 1)"`
}

func (s *Server) createRule(ctx context.Context, _ *mcp.CallToolRequest, in createRuleInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.Name == "" || in.MoveToFolderID == "" {
		return nil, nil, fmt.Errorf("name and moveToFolderId are required")
	}
	if len(in.FromAddresses) == 0 && len(in.SubjectContains) == 0 {
		return nil, nil, fmt.Errorf("provide at least one condition (fromAddresses or subjectContains)")
	}

	sequence := in.Sequence
	if sequence <= 0 {
		sequence = 1
	}

	rule := MessageRule{
		DisplayName: in.Name,
		Sequence:    sequence,
		IsEnabled:   true,
		Conditions: &RuleConditions{
			SubjectContains: in.SubjectContains,
			FromAddresses:   toRecipients(in.FromAddresses),
		},
		Actions: &RuleActions{MoveToFolder: in.MoveToFolderID},
	}

	raw, err := s.client.Call(ctx, token, http.MethodPost, rulesPath, nil, rule)
	if err != nil {
		return nil, nil, describeError(err)
	}

	var created MessageRule
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, nil, fmt.Errorf("decode rule: %w", err)
	}
	return textResult(fmt.Sprintf("Rule created: %s\nID: %s", created.DisplayName, created.ID)), nil, nil
}

type deleteRuleInput struct {
	ID string `json:"id" jsonschema:"the rule ID from list-rules"`
}

func (s *Server) deleteRule(ctx context.Context, _ *mcp.CallToolRequest, in deleteRuleInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.ID == "" {
		return nil, nil, fmt.Errorf("rule id is required")
	}

	if _, err := s.client.Call(ctx, token, http.MethodDelete, rulesPath+"/"+in.ID, nil, nil); err != nil {
		return nil, nil, describeError(err)
	}
	return textResult("Rule deleted."), nil, nil
}
