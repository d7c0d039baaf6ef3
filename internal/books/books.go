// Package books searches the external catalog. The service only depends on Searcher; the
// Google Books client and the caching decorator are the two implementations.
package books

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Varun5711/bookshelf/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Book, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
}

type GoogleClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

func NewGoogleClient(cfg Config) *GoogleClient {
	maxResults := cfg.MaxResults
	if maxResults <= 0 || maxResults > 40 {
		maxResults = 20
	}
	return &GoogleClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type volumesResponse struct {
	Items []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			InfoLink    string   `json:"infoLink"`
			ImageLinks  struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (c *GoogleClient) Search(ctx context.Context, query string) ([]models.Book, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("book search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("book search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]models.Book, 0, len(payload.Items))
	for _, item := range payload.Items {
		authors := item.VolumeInfo.Authors
		if authors == nil {
			authors = []string{"No author to display"}
		}
		results = append(results, models.Book{
			BookID:      item.ID,
			Title:       item.VolumeInfo.Title,
			Authors:     authors,
			Description: item.VolumeInfo.Description,
			Image:       item.VolumeInfo.ImageLinks.Thumbnail,
			Link:        item.VolumeInfo.InfoLink,
		})
	}

	return results, nil
}
