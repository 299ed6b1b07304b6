package session

import "github.com/shawgichan/lucid/internal/models"

type View string

const (
	ViewResults   View = "results"
	ViewBookmarks View = "bookmarks"
)

// Selection is the paper an action was last applied to. Index points into
// State.Results, or into State.Bookmarks when Action is summarize_bookmark.
type Selection struct {
	Action  ActionName `json:"action"`
	Index   int        `json:"index"`
	Summary string     `json:"summary,omitempty"`
}

// State is the UI state of one login session. Handlers never mutate a State
// in place; Dispatch returns the next value.
type State struct {
	LoggedIn  bool              `json:"logged_in"`
	Username  string            `json:"username"`
	Query     string            `json:"query"`
	Results   []models.Paper    `json:"results"`
	Selection *Selection        `json:"selection,omitempty"`
	View      View              `json:"view"`
	Bookmarks []models.Bookmark `json:"bookmarks"`
}

// NewState is the state of a fresh login: no results, no selection, results
// view. An empty username gives the logged-out zero state.
func NewState(username string) State {
	return State{
		LoggedIn:  username != "",
		Username:  username,
		Results:   []models.Paper{},
		View:      ViewResults,
		Bookmarks: []models.Bookmark{},
	}
}

func (s State) clone() State {
	next := s
	next.Results = append([]models.Paper{}, s.Results...)
	next.Bookmarks = append([]models.Bookmark{}, s.Bookmarks...)
	if s.Selection != nil {
		sel := *s.Selection
		next.Selection = &sel
	}
	return next
}
