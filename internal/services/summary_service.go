package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	applogger "github.com/shawgichan/lucid/internal/logger"
)

const DefaultSummarizerURL = "https://api-inference.huggingface.co/models/facebook/bart-large-cnn"

// Output bounds in tokens. Decoding is greedy so the same text always gives
// the same summary.
const (
	SummaryMaxLength = 150
	SummaryMinLength = 30
)

type summarizeRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters summarizeParameters `json:"parameters"`
}

type summarizeParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type summarizeResult struct {
	SummaryText string `json:"summary_text"`
}

type inferenceError struct {
	Error string `json:"error"`
}

// SummaryService calls a Hugging Face inference compatible summarization
// endpoint.
type SummaryService struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *applogger.AppLogger
}

func NewSummaryService(endpoint, apiKey string, client *http.Client, logger *applogger.AppLogger) *SummaryService {
	if endpoint == "" {
		endpoint = DefaultSummarizerURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SummaryService{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
	}
}

func (s *SummaryService) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidInput
	}

	payload, err := json.Marshal(summarizeRequest{
		Inputs: text,
		Parameters: summarizeParameters{
			MaxLength: SummaryMaxLength,
			MinLength: SummaryMinLength,
			DoSample:  false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Failed to send request to summarizer", "error", err)
		return "", fmt.Errorf("failed to send request to summarizer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Summarizer API error", "status_code", resp.StatusCode, "response_body", string(body))
		var errResp inferenceError
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("summarizer error: %s (status %d)", errResp.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("summarizer request failed with status %d", resp.StatusCode)
	}

	var results []summarizeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("failed to unmarshal summarizer response: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("summarizer returned no summaries")
	}

	return strings.TrimSpace(results[0].SummaryText), nil
}
