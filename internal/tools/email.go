package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// defaultEmailCount is returned when the caller does not ask for a
	// specific number of messages.
	defaultEmailCount = 10
	// maxItemCap bounds any single tool call. The page ceiling in the
	// graph client still wins over this.
	maxItemCap = 1000
)

// messageSelectFields keeps list responses small.
const messageSelectFields = "id,subject,from,toRecipients,ccRecipients,receivedDateTime,bodyPreview,isRead,hasAttachments,importance,parentFolderId,webLink"

// Message is an Outlook message from Microsoft Graph.
type Message struct {
	ID               string       `json:"id"`
	Subject          string       `json:"subject"`
	BodyPreview      string       `json:"bodyPreview"`
	Body             *MessageBody `json:"body,omitempty"`
	From             *Recipient   `json:"from,omitempty"`
	ToRecipients     []Recipient  `json:"toRecipients,omitempty"`
	CcRecipients     []Recipient  `json:"ccRecipients,omitempty"`
	ReceivedDateTime string       `json:"receivedDateTime"`
	IsRead           bool         `json:"isRead"`
	HasAttachments   bool         `json:"hasAttachments"`
	Importance       string       `json:"importance"`
	ParentFolderID   string       `json:"parentFolderId"`
	WebLink          string       `json:"webLink"`
}

// MessageBody is the body of an email.
type MessageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Recipient is an email recipient or sender.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// EmailAddress is an address with optional display name.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

func (s *Server) registerMailTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list-emails",
		Description: "List recent emails from a mail folder",
	}, s.listEmails)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search-emails",
		Description: "Search emails by free text, sender or subject",
	}, s.searchEmails)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "read-email",
		Description: "Read the full content of one email",
	}, s.readEmail)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "send-email",
		Description: "Send an email from the active account",
	}, s.sendEmail)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "mark-as-read",
		Description: "Mark an email as read",
	}, s.markAsRead)
}

type listEmailsInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"mail folder: inbox, sentitems, drafts, or a folder ID (default inbox)"`
	Count  int    `json:"count,omitempty" jsonschema:"maximum number of emails to return (default 10, max 1000)"`
}

func (s *Server) listEmails(ctx context.Context, _ *mcp.CallToolRequest, in listEmailsInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}

	folder := in.Folder
	if folder == "" {
		folder = "inbox"
	}
	count := clampCount(in.Count)

	query := map[string]string{
		"$select":  messageSelectFields,
		"$orderby": "receivedDateTime desc",
		"$top":     "25",
	}
	path := fmt.Sprintf("/me/mailFolders/%s/messages", folder)

	result, err := s.client.FetchPaginated(ctx, token, http.MethodGet, path, query, count)
	if err != nil {
		return nil, nil, describeError(err)
	}

	msgs, err := decodeMessages(result.Items)
	if err != nil {
		return nil, nil, err
	}
	return textResult(formatMessageList(msgs, folder)), nil, nil
}

type searchEmailsInput struct {
	Query   string `json:"query,omitempty" jsonschema:"free-text search across message content"`
	From    string `json:"from,omitempty" jsonschema:"match sender address or name"`
	Subject string `json:"subject,omitempty" jsonschema:"match words in the subject"`
	Count   int    `json:"count,omitempty" jsonschema:"maximum number of emails to return (default 10, max 1000)"`
}

func (s *Server) searchEmails(ctx context.Context, _ *mcp.CallToolRequest, in searchEmailsInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.Query == "" && in.From == "" && in.Subject == "" {
		return nil, nil, fmt.Errorf("provide at least one of query, from or subject")
	}

	count := clampCount(in.Count)
	query := map[string]string{
		"$select": messageSelectFields,
		"$top":    "25",
	}

	if in.Query != "" {
		query["$search"] = fmt.Sprintf("%q", in.Query)
	} else {
		// $orderby cannot be combined with $search on messages.
		query["$orderby"] = "receivedDateTime desc"
	}
	if filter := buildMessageFilter(in.From, in.Subject); filter != "" {
		query["$filter"] = filter
	}

	result, err := s.client.FetchPaginated(ctx, token, http.MethodGet, "/me/messages", query, count)
	if err != nil {
		return nil, nil, describeError(err)
	}

	msgs, err := decodeMessages(result.Items)
	if err != nil {
		return nil, nil, err
	}
	if len(msgs) == 0 {
		return textResult("No emails matched."), nil, nil
	}
	return textResult(formatMessageList(msgs, "search results")), nil, nil
}

type readEmailInput struct {
	ID string `json:"id" jsonschema:"the message ID from list-emails or search-emails"`
}

func (s *Server) readEmail(ctx context.Context, _ *mcp.CallToolRequest, in readEmailInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.ID == "" {
		return nil, nil, fmt.Errorf("message id is required")
	}

	query := map[string]string{"$select": messageSelectFields + ",body"}
	raw, err := s.client.Call(ctx, token, http.MethodGet, "/me/messages/"+in.ID, query, nil)
	if err != nil {
		return nil, nil, describeError(err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, nil, fmt.Errorf("decode message: %w", err)
	}
	return textResult(formatMessageFull(&msg)), nil, nil
}

type sendEmailInput struct {
	To              []string `json:"to" jsonschema:"recipient email addresses"`
	Cc              []string `json:"cc,omitempty" jsonschema:"cc addresses"`
	Bcc             []string `json:"bcc,omitempty" jsonschema:"bcc addresses"`
	Subject         string   `json:"subject" jsonschema:"email subject"`
	Body            string   `json:"body" jsonschema:"email body text"`
	HTML            bool     `json:"html,omitempty" jsonschema:"treat body as HTML instead of plain text"`
	SkipSavingToSent bool    `json:"skipSavingToSent,omitempty" jsonschema:"do not keep a copy in Sent Items"`
}

// sendMailRequest is the Graph /me/sendMail payload.
type sendMailRequest struct {
	Message struct {
		Subject      string       `json:"subject"`
		Body         MessageBody  `json:"body"`
		ToRecipients []Recipient  `json:"toRecipients"`
		CcRecipients []Recipient  `json:"ccRecipients,omitempty"`
		BccRecipients []Recipient `json:"bccRecipients,omitempty"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

func (s *Server) sendEmail(ctx context.Context, _ *mcp.CallToolRequest, in sendEmailInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if len(in.To) == 0 {
		return nil, nil, fmt.Errorf("at least one recipient is required")
	}

	contentType := "Text"
	if in.HTML {
		contentType = "HTML"
	}

	var req sendMailRequest
	req.Message.Subject = in.Subject
	req.Message.Body = MessageBody{ContentType: contentType, Content: in.Body}
	req.Message.ToRecipients = toRecipients(in.To)
	req.Message.CcRecipients = toRecipients(in.Cc)
	req.Message.BccRecipients = toRecipients(in.Bcc)
	req.SaveToSentItems = !in.SkipSavingToSent

	if _, err := s.client.Call(ctx, token, http.MethodPost, "/me/sendMail", nil, req); err != nil {
		return nil, nil, describeError(err)
	}
	return textResult(fmt.Sprintf("Email sent to %s.", strings.Join(in.To, ", "))), nil, nil
}

type markAsReadInput struct {
	ID string `json:"id" jsonschema:"the message ID to mark as read"`
}

func (s *Server) markAsRead(ctx context.Context, _ *mcp.CallToolRequest, in markAsReadInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.ID == "" {
		return nil, nil, fmt.Errorf("message id is required")
	}

	body := map[string]bool{"isRead": true}
	if _, err := s.client.Call(ctx, token, http.MethodPatch, "/me/messages/"+in.ID, nil, body); err != nil {
		return nil, nil, describeError(err)
	}
	return textResult("Marked as read."), nil, nil
}

// clampCount applies the default and the per-call cap.
func clampCount(count int) int {
	if count <= 0 {
		return defaultEmailCount
	}
	if count > maxItemCap {
		return maxItemCap
	}
	return count
}

// buildMessageFilter assembles an OData $filter from the structured
// search fields. Single quotes are doubled per OData string literal rules.
func buildMessageFilter(from, subject string) string {
	var parts []string
	if from != "" {
		parts = append(parts, fmt.Sprintf("contains(from/emailAddress/address,'%s')", escapeODataString(from)))
	}
	if subject != "" {
		parts = append(parts, fmt.Sprintf("contains(subject,'%s')", escapeODataString(subject)))
	}
	return strings.Join(parts, " and ")
}

func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func toRecipients(addrs []string) []Recipient {
	recipients := make([]Recipient, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		recipients = append(recipients, Recipient{EmailAddress: EmailAddress{Address: a}})
	}
	return recipients
}

func decodeMessages(items []json.RawMessage) ([]Message, error) {
	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// formatAddress renders "Name <addr>" or just the address.
func formatAddress(r *Recipient) string {
	if r == nil {
		return "(unknown)"
	}
	if r.EmailAddress.Name != "" {
		return fmt.Sprintf("%s <%s>", r.EmailAddress.Name, r.EmailAddress.Address)
	}
	return r.EmailAddress.Address
}

func formatRecipients(recipients []Recipient) string {
	parts := make([]string, 0, len(recipients))
	for i := range recipients {
		parts = append(parts, formatAddress(&recipients[i]))
	}
	return strings.Join(parts, ", ")
}

func formatMessageList(msgs []Message, heading string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d email(s) in %s:\n\n", len(msgs), heading)
	for i, m := range msgs {
		marker := " "
		if !m.IsRead {
			marker = "*"
		}
		attach := ""
		if m.HasAttachments {
			attach = " [attachment]"
		}
		fmt.Fprintf(&sb, "%d.%s %s%s\n   From: %s | %s\n   ID: %s\n",
			i+1, marker, orUntitled(m.Subject), attach,
			formatAddress(m.From), m.ReceivedDateTime, m.ID)
	}
	return sb.String()
}

func formatMessageFull(m *Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\n", orUntitled(m.Subject))
	fmt.Fprintf(&sb, "From: %s\n", formatAddress(m.From))
	if len(m.ToRecipients) > 0 {
		fmt.Fprintf(&sb, "To: %s\n", formatRecipients(m.ToRecipients))
	}
	if len(m.CcRecipients) > 0 {
		fmt.Fprintf(&sb, "Cc: %s\n", formatRecipients(m.CcRecipients))
	}
	fmt.Fprintf(&sb, "Received: %s\n", m.ReceivedDateTime)
	if m.HasAttachments {
		sb.WriteString("Has attachments\n")
	}
	sb.WriteString("\n")
	if m.Body != nil && m.Body.Content != "" {
		sb.WriteString(m.Body.Content)
	} else {
		sb.WriteString(m.BodyPreview)
	}
	return sb.String()
}

func orUntitled(subject string) string {
	if subject == "" {
		return "(no subject)"
	}
	return subject
}
