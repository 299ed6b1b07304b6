package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shawgichan/lucid/internal/models"
)

const uniqueViolation = "23505"

// PostgresStore keeps user records in three tables: users, search_history
// and bookmarks. Appends and the counter increment are single statements.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at`

	user := models.User{Username: username, PasswordHash: passwordHash}
	err := s.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (models.User, error) {
	query :=
		`SELECT id, username, password_hash, api_key, free_search_count, created_at
		 FROM users
		 WHERE username = $1`

	var user models.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.APIKey, &user.FreeSearchCount, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) StoreCredential(ctx context.Context, username, apiKey string) error {
	query :=
		`UPDATE users SET api_key = $2
		 WHERE username = $1`

	res, err := s.db.ExecContext(ctx, query, username, apiKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) GetCredential(ctx context.Context, username string) (string, error) {
	query :=
		`SELECT api_key FROM users
		 WHERE username = $1`

	var apiKey string
	if err := s.db.QueryRowContext(ctx, query, username).Scan(&apiKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return apiKey, nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, username, query string, at time.Time) error {
	stmt :=
		`INSERT INTO search_history (user_id, query, searched_at)
		 SELECT id, $2, $3 FROM users WHERE username = $1`

	res, err := s.db.ExecContext(ctx, stmt, username, query, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) GetHistory(ctx context.Context, username string) ([]models.HistoryEntry, error) {
	query :=
		`SELECT h.query, h.searched_at
		 FROM search_history h
		 JOIN users u ON u.id = h.user_id
		 WHERE u.username = $1
		 ORDER BY h.id`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.Query, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) GetFreeSearchCount(ctx context.Context, username string) (int, error) {
	query :=
		`SELECT free_search_count FROM users
		 WHERE username = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) IncrementFreeSearch(ctx context.Context, username string, limit int) (int, error) {
	query :=
		`UPDATE users SET free_search_count = free_search_count + 1
		 WHERE username = $1 AND free_search_count < $2
		 RETURNING free_search_count`

	var count int
	err := s.db.QueryRowContext(ctx, query, username, limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the user is missing or the counter is at the limit.
		if _, err := s.GetFreeSearchCount(ctx, username); err != nil {
			return 0, err
		}
		return 0, ErrLimitReached
	}
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AddBookmark(ctx context.Context, username string, bookmark models.Bookmark) error {
	stmt :=
		`INSERT INTO bookmarks (user_id, paper_id, title, abstract, created_at)
		 SELECT id, $2, $3, $4, $5 FROM users WHERE username = $1`

	res, err := s.db.ExecContext(ctx, stmt, username, bookmark.PaperID, bookmark.Title, bookmark.Abstract, bookmark.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) GetBookmarks(ctx context.Context, username string) ([]models.Bookmark, error) {
	query :=
		`SELECT b.paper_id, b.title, b.abstract, b.created_at
		 FROM bookmarks b
		 JOIN users u ON u.id = b.user_id
		 WHERE u.username = $1
		 ORDER BY b.id`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]models.Bookmark, 0)
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.PaperID, &b.Title, &b.Abstract, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return bookmarks, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
