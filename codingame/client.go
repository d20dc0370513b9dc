package codingame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"cgbot/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://www.codingame.com/services/"

	codinGamerPattern = "[0-9a-f]{32}[0-9]{7}"
	clashPattern      = "[0-9]{7}[0-9a-f]{32}"

	endpointCodinGamer     = "CodinGamer/findCodingamePointsStatsByHandle"
	endpointClash          = "ClashOfCode/findClashByHandle"
	endpointPendingClashes = "ClashOfCode/findPendingClashes"

	maxErrorBody = 512
)

var (
	codinGamerRegex = regexp.MustCompile("^" + codinGamerPattern + "$")
	clashRegex      = regexp.MustCompile("^" + clashPattern + "$")
)

// Client calls the CodinGame web services. Every endpoint is a POST whose
// body is the JSON array of the call's arguments.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ValidCodinGamerHandle reports whether handle looks like a CodinGamer public handle
func ValidCodinGamerHandle(handle string) bool {
	return codinGamerRegex.MatchString(handle)
}

// ValidClashHandle reports whether handle looks like a Clash of Code handle
func ValidClashHandle(handle string) bool {
	return clashRegex.MatchString(handle)
}

// CodinGamer fetches a user by public handle
func (c *Client) CodinGamer(ctx context.Context, handle string) (*CodinGamer, error) {
	if !ValidCodinGamerHandle(handle) {
		return nil, &FormatError{Kind: "CodinGamer", Handle: handle, Pattern: codinGamerPattern}
	}

	var response struct {
		CodinGamer *CodinGamer `json:"codingamer"`
	}
	status, err := c.post(ctx, endpointCodinGamer, []any{handle}, &response)
	if status == http.StatusNotFound || (err == nil && response.CodinGamer == nil) {
		return nil, &NotFoundError{Kind: "CodinGamer", Handle: handle}
	}
	if err != nil {
		return nil, err
	}

	return response.CodinGamer, nil
}

// ClashOfCode fetches a clash by public handle
func (c *Client) ClashOfCode(ctx context.Context, handle string) (*ClashOfCode, error) {
	if !ValidClashHandle(handle) {
		return nil, &FormatError{Kind: "Clash of Code", Handle: handle, Pattern: clashPattern}
	}

	var response struct {
		ClashOfCode
		// Set when the API answers with an error object instead of a clash
		ErrorID *int   `json:"id"`
		Message string `json:"message"`
	}
	status, err := c.post(ctx, endpointClash, []any{handle}, &response)

	var apiErr *APIError
	notFound := status == http.StatusNotFound ||
		(errors.As(err, &apiErr) && isErrorObject(apiErr.Body)) ||
		(err == nil && (response.ErrorID != nil || response.PublicHandle == ""))
	if notFound {
		return nil, &NotFoundError{Kind: "Clash of Code", Handle: handle}
	}
	if err != nil {
		return nil, err
	}

	clash := response.ClashOfCode
	return &clash, nil
}

// isErrorObject reports whether body is an API error object like {"id": 502, "message": "..."}
func isErrorObject(body string) bool {
	var object struct {
		ID      *int    `json:"id"`
		Message *string `json:"message"`
	}
	return json.Unmarshal([]byte(body), &object) == nil && object.ID != nil && object.Message != nil
}

// PendingClashes lists the public clashes waiting for players
func (c *Client) PendingClashes(ctx context.Context) ([]ClashOfCode, error) {
	var clashes []ClashOfCode
	if _, err := c.post(ctx, endpointPendingClashes, []any{}, &clashes); err != nil {
		return nil, err
	}
	return clashes, nil
}

// post sends the request and decodes a 2xx body into out. The HTTP status is
// returned even on error so callers can map it to their own error types.
func (c *Client) post(ctx context.Context, endpoint string, args []any, out any) (int, error) {
	start := time.Now()

	body, err := json.Marshal(args)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s arguments: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cgbot (+https://github.com/takos22/codingame)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.GetMetrics().RecordCodinGameRequest(endpoint, observability.OutcomeError, time.Since(start))
		return 0, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.GetMetrics().RecordCodinGameRequest(endpoint, observability.OutcomeError, time.Since(start))
		return resp.StatusCode, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	log.WithFields(log.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("CodinGame API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.GetMetrics().RecordCodinGameRequest(endpoint, observability.OutcomeError, time.Since(start))
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return resp.StatusCode, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		observability.GetMetrics().RecordCodinGameRequest(endpoint, observability.OutcomeError, time.Since(start))
		return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	observability.GetMetrics().RecordCodinGameRequest(endpoint, observability.OutcomeSuccess, time.Since(start))
	return resp.StatusCode, nil
}
