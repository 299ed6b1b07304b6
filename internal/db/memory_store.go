package db

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shawgichan/lucid/internal/models"
)

type memoryUser struct {
	user      models.User
	history   []models.HistoryEntry
	bookmarks []models.Bookmark
}

// MemoryStore is an in-process Store for development and tests. Data is
// lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*memoryUser
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*memoryUser)}
}

func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return models.User{}, ErrUserExists
	}
	u := &memoryUser{user: models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}}
	s.users[username] = u
	return u.user, nil
}

func (s *MemoryStore) GetUser(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u.user, nil
}

func (s *MemoryStore) StoreCredential(_ context.Context, username, apiKey string) error {
	return s.mutate(username, func(u *memoryUser) {
		u.user.APIKey = apiKey
	})
}

func (s *MemoryStore) GetCredential(ctx context.Context, username string) (string, error) {
	u, err := s.GetUser(ctx, username)
	if err != nil {
		return "", err
	}
	return u.APIKey, nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, username, query string, at time.Time) error {
	return s.mutate(username, func(u *memoryUser) {
		u.history = append(u.history, models.HistoryEntry{Query: query, SearchedAt: at})
	})
}

func (s *MemoryStore) GetHistory(_ context.Context, username string) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.HistoryEntry, 0)
	if u, ok := s.users[username]; ok {
		entries = append(entries, u.history...)
	}
	return entries, nil
}

func (s *MemoryStore) GetFreeSearchCount(ctx context.Context, username string) (int, error) {
	u, err := s.GetUser(ctx, username)
	if err != nil {
		return 0, err
	}
	return u.FreeSearchCount, nil
}

func (s *MemoryStore) IncrementFreeSearch(_ context.Context, username string, limit int) (int, error) {
	var count int
	var limited bool
	err := s.mutate(username, func(u *memoryUser) {
		if u.user.FreeSearchCount >= limit {
			limited = true
			return
		}
		u.user.FreeSearchCount++
		count = u.user.FreeSearchCount
	})
	if err != nil {
		return 0, err
	}
	if limited {
		return 0, ErrLimitReached
	}
	return count, nil
}

func (s *MemoryStore) AddBookmark(_ context.Context, username string, bookmark models.Bookmark) error {
	return s.mutate(username, func(u *memoryUser) {
		u.bookmarks = append(u.bookmarks, bookmark)
	})
}

func (s *MemoryStore) GetBookmarks(_ context.Context, username string) ([]models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookmarks := make([]models.Bookmark, 0)
	if u, ok := s.users[username]; ok {
		bookmarks = append(bookmarks, u.bookmarks...)
	}
	return bookmarks, nil
}

func (s *MemoryStore) mutate(username string, fn func(*memoryUser)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	return nil
}
