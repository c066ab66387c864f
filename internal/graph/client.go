package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Microsoft Graph API base URL.
const graphBaseURL = "https://graph.microsoft.com/v1.0"

// maxPages is the hard ceiling on cursor follows per paginated fetch.
// It guarantees termination even if the server's nextLink never ends or
// loops, and wins over any explicit item cap.
const maxPages = 100

// Page is one page of a Graph collection response.
type Page struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// AggregatedResult is the consolidated output of a paginated fetch.
// Count always equals len(Items) after truncation.
type AggregatedResult struct {
	Items []json.RawMessage
	Count int
}

// Client issues authenticated calls against Microsoft Graph and follows
// server-provided continuation cursors with bounded accumulation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	log        zerolog.Logger
}

// NewClient creates a Graph client with default base URL and rate limits.
func NewClient(log zerolog.Logger) *Client {
	return NewClientWithBaseURL(graphBaseURL, log)
}

// NewClientWithBaseURL creates a Graph client against a custom base URL.
func NewClientWithBaseURL(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewRateLimiter(),
		log:        log,
	}
}

// Call issues a single authenticated Graph request against a resource path
// such as "/me/messages". Query parameters are serialised with
// BuildQueryString. A non-nil body is sent as JSON.
func (c *Client) Call(
	ctx context.Context,
	token, method, path string,
	query map[string]string,
	body any,
) (json.RawMessage, error) {
	return c.do(ctx, token, method, c.baseURL+path+BuildQueryString(query), body)
}

// do issues a request against an absolute URL. Cursor follows reuse the
// nextLink verbatim, so no query assembly happens here.
func (c *Client) do(
	ctx context.Context,
	token, method, fullURL string,
	body any,
) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if IsRateLimited(resp.StatusCode) {
			retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			c.limiter.RecordRateLimitError(retryAfter)
		}
		c.log.Debug().
			Str("method", method).
			Str("url", fullURL).
			Int("status", resp.StatusCode).
			Msg("graph call failed")
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// FetchPaginated retrieves a Graph collection, following @odata.nextLink
// cursors until maxItems is reached, the cursor chain ends, or the page
// ceiling trips. maxItems == 0 means no cap.
//
// Stop conditions are checked in this order each iteration: page ceiling,
// item cap, missing cursor. The ceiling always wins, even over a larger
// explicit cap.
func (c *Client) FetchPaginated(
	ctx context.Context,
	token, method, path string,
	query map[string]string,
	maxItems int,
) (*AggregatedResult, error) {
	// Re-fetching a cursor is only idempotent for reads.
	if method != http.MethodGet {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	var items []json.RawMessage
	nextLink := ""

	for page := 0; ; page++ {
		if page >= maxPages {
			c.log.Warn().
				Str("path", path).
				Int("pages", page).
				Int("items", len(items)).
				Msg("page ceiling reached, returning accumulated results")
			break
		}
		if maxItems > 0 && len(items) >= maxItems {
			break
		}

		var raw json.RawMessage
		var err error
		if nextLink == "" {
			raw, err = c.Call(ctx, token, method, path, query, nil)
		} else {
			// The cursor already encodes the original query parameters.
			raw, err = c.do(ctx, token, method, nextLink, nil)
		}
		if err != nil {
			return nil, err
		}

		var p Page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		items = append(items, p.Value...)

		c.log.Debug().
			Str("path", path).
			Int("page", page+1).
			Int("page_items", len(p.Value)).
			Int("total_items", len(items)).
			Msg("fetched page")

		if p.NextLink == "" {
			break
		}
		nextLink = p.NextLink
	}

	// The last page may overshoot the cap since page size is independent
	// of maxItems.
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	return &AggregatedResult{Items: items, Count: len(items)}, nil
}
