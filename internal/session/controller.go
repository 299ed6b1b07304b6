package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shawgichan/lucid/internal/db"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/services"
)

var (
	ErrNotLoggedIn   = errors.New("no logged-in session")
	ErrUnknownAction = errors.New("unknown action")
)

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// MainView is everything the main page renders for a logged-in user.
type MainView struct {
	Greeting         string                `json:"greeting"`
	State            State                 `json:"state"`
	History          []models.HistoryEntry `json:"history"`
	FreeSearchesLeft int                   `json:"free_searches_left"`
}

// Controller applies named UI actions to a session State.
type Controller struct {
	search     *services.SearchService
	summarizer Summarizer
	store      db.Store
	logger     *applogger.AppLogger
	now        func() time.Time
}

func NewController(search *services.SearchService, summarizer Summarizer, store db.Store, logger *applogger.AppLogger) *Controller {
	return &Controller{
		search:     search,
		summarizer: summarizer,
		store:      store,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch returns the state that follows st after action. Notices carry the
// recoverable outcomes; a non-nil error means the action could not be applied
// and st is returned unchanged.
func (c *Controller) Dispatch(ctx context.Context, st State, action Action) (State, []Notice, error) {
	if !st.LoggedIn {
		return st, nil, ErrNotLoggedIn
	}

	c.logger.Debug("Dispatching action", "username", st.Username, "action", action.Name)

	switch action.Name {
	case ActionSearch:
		return c.runSearch(ctx, st, action)
	case ActionSummarize:
		return c.summarizeResult(ctx, st, action.Index)
	case ActionBookmark:
		return c.bookmarkResult(ctx, st, action.Index)
	case ActionViewBookmarks:
		return c.viewBookmarks(ctx, st)
	case ActionSummarizeBookmark:
		return c.summarizeBookmark(ctx, st, action.Index)
	case ActionViewResults:
		next := st.clone()
		next.View = ViewResults
		next.Selection = nil
		return next, nil, nil
	default:
		return st, nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Name)
	}
}

func (c *Controller) runSearch(ctx context.Context, st State, action Action) (State, []Notice, error) {
	query := strings.TrimSpace(action.Query)
	if query == "" {
		return st, []Notice{warning(msgInvalidInput)}, nil
	}

	apiKey, err := c.search.ResolveCredential(ctx, st.Username, action.Choice, action.APIKey)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return st, []Notice{warning(msgInvalidInput)}, nil
	case errors.Is(err, services.ErrFreeQuotaExhausted):
		return st, []Notice{failure(msgQuotaExhausted)}, nil
	case errors.Is(err, services.ErrNoSharedCredential):
		return st, []Notice{failure(msgNoSharedKey)}, nil
	case err != nil:
		return st, nil, err
	}

	next := st.clone()
	next.Query = query
	next.View = ViewResults
	next.Selection = nil
	next.Results = []models.Paper{}

	papers, err := c.search.Search(ctx, st.Username, query, apiKey)
	var statusErr *services.UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		return next, []Notice{failure(statusErr.Error())}, nil
	case errors.Is(err, services.ErrUnexpectedFormat):
		return next, []Notice{failure(msgUnexpectedFormat)}, nil
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return next, []Notice{failure(msgUnreachable)}, nil
	case errors.Is(err, services.ErrInvalidInput):
		return st, []Notice{warning(msgInvalidInput)}, nil
	case err != nil:
		return st, nil, err
	}

	next.Results = append(next.Results, papers...)
	if len(papers) == 0 {
		return next, []Notice{{Level: LevelInfo, Message: msgNoPapers}}, nil
	}
	return next, nil, nil
}

func (c *Controller) summarizeResult(ctx context.Context, st State, index int) (State, []Notice, error) {
	if index < 0 || index >= len(st.Results) {
		return st, []Notice{warning(msgInvalidSelection)}, nil
	}
	return c.summarize(ctx, st, ActionSummarize, index, st.Results[index].Abstract)
}

func (c *Controller) summarizeBookmark(ctx context.Context, st State, index int) (State, []Notice, error) {
	bookmarks, err := c.store.GetBookmarks(ctx, st.Username)
	if err != nil {
		return st, nil, fmt.Errorf("loading bookmarks: %w", err)
	}
	st = st.clone()
	st.Bookmarks = bookmarks
	st.View = ViewBookmarks

	if index < 0 || index >= len(bookmarks) {
		return st, []Notice{warning(msgInvalidSelection)}, nil
	}
	return c.summarize(ctx, st, ActionSummarizeBookmark, index, bookmarks[index].Abstract)
}

func (c *Controller) summarize(ctx context.Context, st State, name ActionName, index int, abstract string) (State, []Notice, error) {
	if strings.TrimSpace(abstract) == "" {
		return st, []Notice{warning(msgNothingToSummarize)}, nil
	}

	summary, err := c.summarizer.Summarize(ctx, abstract)
	if err != nil {
		return st, nil, fmt.Errorf("summarizing abstract: %w", err)
	}

	next := st.clone()
	next.Selection = &Selection{Action: name, Index: index, Summary: summary}
	return next, nil, nil
}

func (c *Controller) bookmarkResult(ctx context.Context, st State, index int) (State, []Notice, error) {
	if index < 0 || index >= len(st.Results) {
		return st, []Notice{warning(msgInvalidSelection)}, nil
	}

	bookmark := models.BookmarkFromPaper(st.Results[index], c.now())
	if err := c.store.AddBookmark(ctx, st.Username, bookmark); err != nil {
		return st, nil, fmt.Errorf("saving bookmark: %w", err)
	}
	c.logger.Info("Paper bookmarked", "username", st.Username, "paper_id", bookmark.PaperID)

	next := st.clone()
	next.Selection = &Selection{Action: ActionBookmark, Index: index}
	return next, []Notice{{Level: LevelSuccess, Message: msgBookmarked}}, nil
}

func (c *Controller) viewBookmarks(ctx context.Context, st State) (State, []Notice, error) {
	bookmarks, err := c.store.GetBookmarks(ctx, st.Username)
	if err != nil {
		return st, nil, fmt.Errorf("loading bookmarks: %w", err)
	}

	next := st.clone()
	next.Bookmarks = bookmarks
	next.View = ViewBookmarks
	next.Selection = nil
	if len(bookmarks) == 0 {
		return next, []Notice{{Level: LevelInfo, Message: msgNoBookmarks}}, nil
	}
	return next, nil, nil
}

// View builds the main page for st, including the sidebar history (most
// recent first) and the remaining free searches.
func (c *Controller) View(ctx context.Context, st State) (MainView, error) {
	if !st.LoggedIn {
		return MainView{}, ErrNotLoggedIn
	}

	history, err := c.search.History(ctx, st.Username)
	if err != nil {
		return MainView{}, err
	}
	left, err := c.search.FreeSearchesLeft(ctx, st.Username)
	if err != nil {
		return MainView{}, err
	}

	return MainView{
		Greeting:         fmt.Sprintf("Welcome! %s", st.Username),
		State:            st.clone(),
		History:          history,
		FreeSearchesLeft: left,
	}, nil
}
