package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the per-username record owned by the persistence layer. The stored
// API key is a secret and never leaves the service.
type User struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	APIKey          string    `json:"-"`
	FreeSearchCount int       `json:"free_search_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryEntry is one recorded search. Entries are append-only.
type HistoryEntry struct {
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searched_at"`
}

// Paper is a normalized search result. It only lives in session state until
// the next search replaces it.
type Paper struct {
	PaperID  string `json:"paper_id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
}

// Bookmark is the persisted subset of a Paper.
type Bookmark struct {
	PaperID   string    `json:"paper_id"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	CreatedAt time.Time `json:"created_at"`
}

func BookmarkFromPaper(p Paper, at time.Time) Bookmark {
	return Bookmark{
		PaperID:   p.PaperID,
		Title:     p.Title,
		Abstract:  p.Abstract,
		CreatedAt: at,
	}
}
