package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shawgichan/lucid/internal/models"
)

const usersCollection = "users"

type historyDocument struct {
	Query      string    `bson:"query"`
	SearchedAt time.Time `bson:"searched_at"`
}

type bookmarkDocument struct {
	PaperID   string    `bson:"paper_id"`
	Title     string    `bson:"title"`
	Abstract  string    `bson:"abstract"`
	CreatedAt time.Time `bson:"created_at"`
}

// userDocument is the whole user record: one document per username with the
// history and bookmarks embedded as arrays.
type userDocument struct {
	ObjectID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	Username      string             `bson:"username"`
	PasswordHash  string             `bson:"password_hash"`
	APIKey        string             `bson:"api_key"`
	FreeSearch    int                `bson:"free_search"`
	SearchHistory []historyDocument  `bson:"search_history"`
	Bookmarks     []bookmarkDocument `bson:"bookmarks"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (d userDocument) toModel() models.User {
	id, _ := uuid.Parse(d.UserID)
	return models.User{
		ID:              id,
		Username:        d.Username,
		PasswordHash:    d.PasswordHash,
		APIKey:          d.APIKey,
		FreeSearchCount: d.FreeSearch,
		CreatedAt:       d.CreatedAt,
	}
}

func (d userDocument) historyModels() []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(d.SearchHistory))
	for _, h := range d.SearchHistory {
		entries = append(entries, models.HistoryEntry{Query: h.Query, SearchedAt: h.SearchedAt})
	}
	return entries
}

func (d userDocument) bookmarkModels() []models.Bookmark {
	bookmarks := make([]models.Bookmark, 0, len(d.Bookmarks))
	for _, b := range d.Bookmarks {
		bookmarks = append(bookmarks, models.Bookmark{
			PaperID:   b.PaperID,
			Title:     b.Title,
			Abstract:  b.Abstract,
			CreatedAt: b.CreatedAt,
		})
	}
	return bookmarks
}

func newUserDocument(username, passwordHash string, now time.Time) userDocument {
	return userDocument{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		// Arrays must exist for $push to work on them.
		SearchHistory: []historyDocument{},
		Bookmarks:     []bookmarkDocument{},
		CreatedAt:     now,
	}
}

// MongoStore keeps one document per user in the users collection.
type MongoStore struct {
	users *mongo.Collection
}

// NewMongoStore ensures the unique username index exists.
func NewMongoStore(ctx context.Context, database *mongo.Database) (*MongoStore, error) {
	users := database.Collection(usersCollection)

	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("creating username index: %w", err)
	}

	return &MongoStore{users: users}, nil
}

func byUsername(username string) bson.M {
	return bson.M{"username": username}
}

func (s *MongoStore) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	doc := newUserDocument(username, passwordHash, time.Now().UTC().Truncate(time.Millisecond))

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("mongo error: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) findOne(ctx context.Context, username string, projection bson.M) (userDocument, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	var doc userDocument
	if err := s.users.FindOne(ctx, byUsername(username), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userDocument{}, ErrNotFound
		}
		return userDocument{}, fmt.Errorf("mongo error: %w", err)
	}
	return doc, nil
}

func (s *MongoStore) GetUser(ctx context.Context, username string) (models.User, error) {
	doc, err := s.findOne(ctx, username, bson.M{"search_history": 0, "bookmarks": 0})
	if err != nil {
		return models.User{}, err
	}
	return doc.toModel(), nil
}

func (s *MongoStore) update(ctx context.Context, username string, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, byUsername(username), update)
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) StoreCredential(ctx context.Context, username, apiKey string) error {
	return s.update(ctx, username, bson.M{"$set": bson.M{"api_key": apiKey}})
}

func (s *MongoStore) GetCredential(ctx context.Context, username string) (string, error) {
	doc, err := s.findOne(ctx, username, bson.M{"api_key": 1})
	if err != nil {
		return "", err
	}
	return doc.APIKey, nil
}

func (s *MongoStore) AppendHistory(ctx context.Context, username, query string, at time.Time) error {
	entry := historyDocument{Query: query, SearchedAt: at}
	return s.update(ctx, username, bson.M{"$push": bson.M{"search_history": entry}})
}

func (s *MongoStore) GetHistory(ctx context.Context, username string) ([]models.HistoryEntry, error) {
	doc, err := s.findOne(ctx, username, bson.M{"search_history": 1})
	if errors.Is(err, ErrNotFound) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.historyModels(), nil
}

func (s *MongoStore) GetFreeSearchCount(ctx context.Context, username string) (int, error) {
	doc, err := s.findOne(ctx, username, bson.M{"free_search": 1})
	if err != nil {
		return 0, err
	}
	return doc.FreeSearch, nil
}

func (s *MongoStore) IncrementFreeSearch(ctx context.Context, username string, limit int) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"free_search": 1})

	var doc userDocument
	err := s.users.FindOneAndUpdate(ctx, belowLimit(username, limit), bson.M{"$inc": bson.M{"free_search": 1}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the user is missing or the counter is at the limit.
		if _, err := s.GetFreeSearchCount(ctx, username); err != nil {
			return 0, err
		}
		return 0, ErrLimitReached
	}
	if err != nil {
		return 0, fmt.Errorf("mongo error: %w", err)
	}
	return doc.FreeSearch, nil
}

func belowLimit(username string, limit int) bson.M {
	return bson.M{"username": username, "free_search": bson.M{"$lt": limit}}
}

func (s *MongoStore) AddBookmark(ctx context.Context, username string, bookmark models.Bookmark) error {
	entry := bookmarkDocument{
		PaperID:   bookmark.PaperID,
		Title:     bookmark.Title,
		Abstract:  bookmark.Abstract,
		CreatedAt: bookmark.CreatedAt,
	}
	return s.update(ctx, username, bson.M{"$push": bson.M{"bookmarks": entry}})
}

func (s *MongoStore) GetBookmarks(ctx context.Context, username string) ([]models.Bookmark, error) {
	doc, err := s.findOne(ctx, username, bson.M{"bookmarks": 1})
	if errors.Is(err, ErrNotFound) {
		return []models.Bookmark{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.bookmarkModels(), nil
}
