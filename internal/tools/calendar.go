package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const eventSelectFields = "id,subject,start,end,location,organizer,attendees,isAllDay,isCancelled,webLink"

// Event is a calendar event from Microsoft Graph.
type Event struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	Body        *MessageBody  `json:"body,omitempty"`
	Start       *DateTimeZone `json:"start,omitempty"`
	End         *DateTimeZone `json:"end,omitempty"`
	Location    *Location     `json:"location,omitempty"`
	Organiser   *Recipient    `json:"organizer,omitempty"` //nolint:misspell // Microsoft API field name
	Attendees   []Attendee    `json:"attendees,omitempty"`
	IsAllDay    bool          `json:"isAllDay"`
	IsCancelled bool          `json:"isCancelled"`
	WebLink     string        `json:"webLink"`
}

// DateTimeZone is a date-time with time zone.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Location is an event location.
type Location struct {
	DisplayName string `json:"displayName"`
}

// Attendee is an event attendee.
type Attendee struct {
	Type         string       `json:"type,omitempty"`
	EmailAddress EmailAddress `json:"emailAddress"`
}

func (s *Server) registerCalendarTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list-events",
		Description: "List upcoming calendar events",
	}, s.listEvents)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create-event",
		Description: "Create a calendar event",
	}, s.createEvent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update-event",
		Description: "Update an existing calendar event",
	}, s.updateEvent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete-event",
		Description: "Delete (cancel) a calendar event",
	}, s.deleteEvent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "accept-event",
		Description: "Accept a meeting invitation",
	}, s.acceptEvent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "decline-event",
		Description: "Decline a meeting invitation",
	}, s.declineEvent)
}

type listEventsInput struct {
	Count int `json:"count,omitempty" jsonschema:"maximum number of events to return (default 10, max 1000)"`
}

func (s *Server) listEvents(ctx context.Context, _ *mcp.CallToolRequest, in listEventsInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}

	query := map[string]string{
		"$select":  eventSelectFields,
		"$orderby": "start/dateTime",
		"$top":     "25",
	}

	result, err := s.client.FetchPaginated(ctx, token, http.MethodGet, "/me/events", query, clampCount(in.Count))
	if err != nil {
		return nil, nil, describeError(err)
	}

	events := make([]Event, 0, len(result.Items))
	for _, item := range result.Items {
		var e Event
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		return textResult("No events found."), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d event(s):\n\n", len(events))
	for i, e := range events {
		status := ""
		if e.IsCancelled {
			status = " [cancelled]"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n   %s\n   ID: %s\n",
			i+1, orUntitled(e.Subject), status, formatEventTime(&e), e.ID)
	}
	return textResult(sb.String()), nil, nil
}

type createEventInput struct {
	Subject   string   `json:"subject" jsonschema:"event title"`
	Start     string   `json:"start" jsonschema:"start time, ISO 8601 (e.g. 2026-09-01T10:00:00)"`
	End       string   `json:"end" jsonschema:"end time, ISO 8601"`
	TimeZone  string   `json:"timeZone,omitempty" jsonschema:"IANA or Windows time zone (default UTC)"`
	Location  string   `json:"location,omitempty" jsonschema:"event location"`
	Body      string   `json:"body,omitempty" jsonschema:"event description"`
	Attendees []string `json:"attendees,omitempty" jsonschema:"attendee email addresses"`
}

// eventPayload is the Graph create/update event body.
type eventPayload struct {
	Subject   string        `json:"subject,omitempty"`
	Body      *MessageBody  `json:"body,omitempty"`
	Start     *DateTimeZone `json:"start,omitempty"`
	End       *DateTimeZone `json:"end,omitempty"`
	Location  *Location     `json:"location,omitempty"`
	Attendees []Attendee    `json:"attendees,omitempty"`
}

func (s *Server) createEvent(ctx context.Context, _ *mcp.CallToolRequest, in createEventInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.Subject == "" || in.Start == "" || in.End == "" {
		return nil, nil, fmt.Errorf("subject, start and end are required")
	}

	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	payload := eventPayload{
		Subject: in.Subject,
		Start:   &DateTimeZone{DateTime: in.Start, TimeZone: tz},
		End:     &DateTimeZone{DateTime: in.End, TimeZone: tz},
	}
	if in.Body != "" {
		payload.Body = &MessageBody{ContentType: "Text", Content: in.Body}
	}
	if in.Location != "" {
		payload.Location = &Location{DisplayName: in.Location}
	}
	for _, a := range in.Attendees {
		payload.Attendees = append(payload.Attendees, Attendee{
			Type:         "required",
			EmailAddress: EmailAddress{Address: strings.TrimSpace(a)},
		})
	}

	raw, err := s.client.Call(ctx, token, http.MethodPost, "/me/events", nil, payload)
	if err != nil {
		return nil, nil, describeError(err)
	}

	var created Event
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, nil, fmt.Errorf("decode created event: %w", err)
	}
	return textResult(fmt.Sprintf("Event created: %s\nID: %s", created.Subject, created.ID)), nil, nil
}

type updateEventInput struct {
	ID       string `json:"id" jsonschema:"the event ID"`
	Subject  string `json:"subject,omitempty" jsonschema:"new title"`
	Start    string `json:"start,omitempty" jsonschema:"new start time, ISO 8601"`
	End      string `json:"end,omitempty" jsonschema:"new end time, ISO 8601"`
	TimeZone string `json:"timeZone,omitempty" jsonschema:"time zone for start/end (default UTC)"`
	Location string `json:"location,omitempty" jsonschema:"new location"`
	Body     string `json:"body,omitempty" jsonschema:"new description"`
}

func (s *Server) updateEvent(ctx context.Context, _ *mcp.CallToolRequest, in updateEventInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.ID == "" {
		return nil, nil, fmt.Errorf("event id is required")
	}

	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	var payload eventPayload
	payload.Subject = in.Subject
	if in.Start != "" {
		payload.Start = &DateTimeZone{DateTime: in.Start, TimeZone: tz}
	}
	if in.End != "" {
		payload.End = &DateTimeZone{DateTime: in.End, TimeZone: tz}
	}
	if in.Location != "" {
		payload.Location = &Location{DisplayName: in.Location}
	}
	if in.Body != "" {
		payload.Body = &MessageBody{ContentType: "Text", Content: in.Body}
	}

	if _, err := s.client.Call(ctx, token, http.MethodPatch, "/me/events/"+in.ID, nil, payload); err != nil {
		return nil, nil, describeError(err)
	}
	return textResult("Event updated."), nil, nil
}

type eventIDInput struct {
	ID      string `json:"id" jsonschema:"the event ID"`
	Comment string `json:"comment,omitempty" jsonschema:"optional note to the organiser"`
}

func (s *Server) deleteEvent(ctx context.Context, _ *mcp.CallToolRequest, in eventIDInput) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.ID == "" {
		return nil, nil, fmt.Errorf("event id is required")
	}

	if _, err := s.client.Call(ctx, token, http.MethodDelete, "/me/events/"+in.ID, nil, nil); err != nil {
		return nil, nil, describeError(err)
	}
	return textResult("Event deleted."), nil, nil
}

func (s *Server) acceptEvent(ctx context.Context, _ *mcp.CallToolRequest, in eventIDInput) (*mcp.CallToolResult, any, error) {
	return s.respondToEvent(ctx, in, "accept")
}

func (s *Server) declineEvent(ctx context.Context, _ *mcp.CallToolRequest, in eventIDInput) (*mcp.CallToolResult, any, error) {
	return s.respondToEvent(ctx, in, "decline")
}

func (s *Server) respondToEvent(ctx context.Context, in eventIDInput, response string) (*mcp.CallToolResult, any, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if in.ID == "" {
		return nil, nil, fmt.Errorf("event id is required")
	}

	body := map[string]any{"sendResponse": true}
	if in.Comment != "" {
		body["comment"] = in.Comment
	}
	path := fmt.Sprintf("/me/events/%s/%s", in.ID, response)
	if _, err := s.client.Call(ctx, token, http.MethodPost, path, nil, body); err != nil {
		return nil, nil, describeError(err)
	}
	if response == "accept" {
		return textResult("Invitation accepted."), nil, nil
	}
	return textResult("Invitation declined."), nil, nil
}

func formatEventTime(e *Event) string {
	if e.Start == nil || e.End == nil {
		return "(no time)"
	}
	if e.IsAllDay {
		return fmt.Sprintf("%s (all day)", e.Start.DateTime)
	}
	out := fmt.Sprintf("%s - %s (%s)", e.Start.DateTime, e.End.DateTime, e.Start.TimeZone)
	if e.Location != nil && e.Location.DisplayName != "" {
		out += " @ " + e.Location.DisplayName
	}
	return out
}
