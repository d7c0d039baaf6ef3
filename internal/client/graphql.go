package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Varun5711/bookshelf/internal/apperr"
)

// TokenSource returns the bearer token to send, or "" for anonymous requests.
type TokenSource func() string

type GraphQLClient struct {
	endpoint   string
	httpClient *http.Client
	token      TokenSource
}

func NewGraphQLClient(endpoint string, token TokenSource) *GraphQLClient {
	if token == nil {
		token = func() string { return "" }
	}
	return &GraphQLClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Do posts query and decodes "data" into out. The first GraphQL error is returned as the
// matching apperr type so callers can use errors.Is.
func (c *GraphQLClient) Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(payload.Errors) > 0 {
		return toError(payload.Errors[0])
	}

	if out == nil || len(payload.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

func toError(e gqlError) error {
	code, _ := e.Extensions["code"].(string)
	field, _ := e.Extensions["field"].(string)

	switch code {
	case apperr.CodeBadUserInput:
		msg := e.Message
		if field != "" {
			msg = strings.TrimPrefix(msg, field+": ")
		}
		return &apperr.ValidationError{Field: field, Message: msg}
	case apperr.CodeConflict:
		return &apperr.ConflictError{Field: field}
	case apperr.CodeUnauthenticated:
		return &apperr.AuthenticationError{Message: e.Message}
	case apperr.CodeNotFound:
		return &apperr.NotFoundError{Resource: "book"}
	default:
		return fmt.Errorf("graphql: %s", e.Message)
	}
}
