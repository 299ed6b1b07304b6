package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/models"
)

const (
	DefaultSemanticAPIURL = "https://api.semanticscholar.org/graph/v1/paper/search"
	semanticFields        = "title,abstract,url"
)

var (
	ErrUnexpectedFormat    = errors.New("unexpected response format from the API")
	ErrUpstreamUnavailable = errors.New("search API is unreachable")
)

// UpstreamStatusError reports a non-200 answer from the search API.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("API request failed with status code %d", e.StatusCode)
}

// ScholarClient calls the Semantic Scholar paper search endpoint. It never
// retries.
type ScholarClient struct {
	baseURL string
	client  *http.Client
	logger  *applogger.AppLogger
}

func NewScholarClient(baseURL string, client *http.Client, logger *applogger.AppLogger) *ScholarClient {
	if baseURL == "" {
		baseURL = DefaultSemanticAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ScholarClient{baseURL: baseURL, client: client, logger: logger}
}

type semanticSearchResponse struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	// Data stays raw so a body without the key can be told apart from a
	// null or empty result list.
	Data json.RawMessage `json:"data"`
}

type semanticPaper struct {
	PaperID  string  `json:"paperId"`
	Title    string  `json:"title"`
	Abstract *string `json:"abstract"`
	URL      string  `json:"url"`
}

func (p semanticPaper) normalize() models.Paper {
	paper := models.Paper{
		PaperID: p.PaperID,
		Title:   p.Title,
		URL:     p.URL,
	}
	if p.Abstract != nil {
		paper.Abstract = *p.Abstract
	}
	return paper
}

func (c *ScholarClient) Search(ctx context.Context, query, apiKey string) ([]models.Paper, error) {
	params := url.Values{
		"query":  {query},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Semantic Scholar request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Semantic Scholar returned non-200", "status_code", resp.StatusCode)
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	var body semanticSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("Failed to decode Semantic Scholar response", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedFormat, err)
	}
	if len(body.Data) == 0 {
		c.logger.Warn("Semantic Scholar response has no data key")
		return nil, ErrUnexpectedFormat
	}

	// A null data value decodes to an empty list.
	var raw []semanticPaper
	if err := json.Unmarshal(body.Data, &raw); err != nil {
		c.logger.Warn("Failed to decode Semantic Scholar papers", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedFormat, err)
	}

	papers := make([]models.Paper, 0, len(raw))
	for _, p := range raw {
		papers = append(papers, p.normalize())
	}
	return papers, nil
}
