package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shawgichan/lucid/internal/db"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/models"
)

// FreeSearchQuota is how many searches a user may run on the shared credential.
const FreeSearchQuota = 2

var (
	ErrInvalidInput       = errors.New("a valid API key and a search query are required")
	ErrFreeQuotaExhausted = errors.New("free search quota exhausted")
	ErrNoSharedCredential = errors.New("no shared API key is configured")
)

type CredentialChoice string

const (
	ChoiceShared CredentialChoice = "shared"
	ChoiceOwn    CredentialChoice = "own"
)

// ParseCredentialChoice maps the request value to a choice. Empty means shared.
func ParseCredentialChoice(s string) (CredentialChoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ChoiceShared):
		return ChoiceShared, nil
	case string(ChoiceOwn):
		return ChoiceOwn, nil
	default:
		return "", fmt.Errorf("unknown credential choice %q", s)
	}
}

// Searcher runs one paper search against the upstream API.
type Searcher interface {
	Search(ctx context.Context, query, apiKey string) ([]models.Paper, error)
}

type SearchService struct {
	store     db.Store
	searcher  Searcher
	sharedKey string
	logger    *applogger.AppLogger
	now       func() time.Time
}

func NewSearchService(store db.Store, searcher Searcher, sharedKey string, logger *applogger.AppLogger) *SearchService {
	return &SearchService{
		store:     store,
		searcher:  searcher,
		sharedKey: sharedKey,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ResolveCredential picks the API key for a search. The shared path consumes
// one free search; an own key is persisted for reuse.
func (s *SearchService) ResolveCredential(ctx context.Context, username string, choice CredentialChoice, supplied string) (string, error) {
	switch choice {
	case ChoiceShared:
		if s.sharedKey == "" {
			return "", ErrNoSharedCredential
		}
		// Check and increment are a single store call.
		count, err := s.store.IncrementFreeSearch(ctx, username, FreeSearchQuota)
		if errors.Is(err, db.ErrLimitReached) {
			s.logger.Info("Free search quota exhausted", "username", username)
			return "", ErrFreeQuotaExhausted
		}
		if err != nil {
			return "", fmt.Errorf("consuming free search: %w", err)
		}
		s.logger.Debug("Free search granted", "username", username, "count", count)
		return s.sharedKey, nil

	case ChoiceOwn:
		supplied = strings.TrimSpace(supplied)
		if supplied != "" {
			if err := s.store.StoreCredential(ctx, username, supplied); err != nil {
				return "", fmt.Errorf("storing credential: %w", err)
			}
			return supplied, nil
		}
		stored, err := s.store.GetCredential(ctx, username)
		if err != nil {
			return "", fmt.Errorf("reading stored credential: %w", err)
		}
		if stored == "" {
			return "", ErrInvalidInput
		}
		return stored, nil

	default:
		return "", fmt.Errorf("unknown credential choice %q", choice)
	}
}

// StoreCredential saves the user's own API key.
func (s *SearchService) StoreCredential(ctx context.Context, username, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrInvalidInput
	}
	if err := s.store.StoreCredential(ctx, username, apiKey); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// Search records the query in history and then calls the upstream API, so a
// failed search still shows up in history.
func (s *SearchService) Search(ctx context.Context, username, query, apiKey string) ([]models.Paper, error) {
	query = strings.TrimSpace(query)
	if query == "" || strings.TrimSpace(apiKey) == "" {
		return nil, ErrInvalidInput
	}

	if err := s.store.AppendHistory(ctx, username, query, s.now()); err != nil {
		return nil, fmt.Errorf("recording search history: %w", err)
	}

	s.logger.Info("Searching papers", "username", username, "query", query)
	papers, err := s.searcher.Search(ctx, query, apiKey)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Search finished", "username", username, "results", len(papers))
	return papers, nil
}

// History returns the user's searches most recent first.
func (s *SearchService) History(ctx context.Context, username string) ([]models.HistoryEntry, error) {
	entries, err := s.store.GetHistory(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("reading search history: %w", err)
	}
	reversed := make([]models.HistoryEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	return reversed, nil
}

// Bookmarks returns the user's bookmarks in the order they were added.
func (s *SearchService) Bookmarks(ctx context.Context, username string) ([]models.Bookmark, error) {
	bookmarks, err := s.store.GetBookmarks(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("reading bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *SearchService) FreeSearchesLeft(ctx context.Context, username string) (int, error) {
	count, err := s.store.GetFreeSearchCount(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("reading free search count: %w", err)
	}
	if count >= FreeSearchQuota {
		return 0, nil
	}
	return FreeSearchQuota - count, nil
}
