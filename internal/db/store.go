package db

import (
	"context"
	"errors"
	"time"

	"github.com/shawgichan/lucid/internal/models"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrLimitReached = errors.New("free search limit reached")
)

// Store is the per-username persistence gateway. Every operation touches a
// single user's record. List reads for an unknown user return an empty list,
// scalar reads and writes return ErrNotFound.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, username string) (models.User, error)

	StoreCredential(ctx context.Context, username, apiKey string) error
	GetCredential(ctx context.Context, username string) (string, error)

	AppendHistory(ctx context.Context, username, query string, at time.Time) error
	GetHistory(ctx context.Context, username string) ([]models.HistoryEntry, error)

	GetFreeSearchCount(ctx context.Context, username string) (int, error)
	// IncrementFreeSearch adds one to the counter only while it is below
	// limit, as a single atomic step, and returns the new value.
	IncrementFreeSearch(ctx context.Context, username string, limit int) (int, error)

	// AddBookmark appends without de-duplication.
	AddBookmark(ctx context.Context, username string, bookmark models.Bookmark) error
	GetBookmarks(ctx context.Context, username string) ([]models.Bookmark, error)
}
