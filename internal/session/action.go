package session

import (
	"fmt"

	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/services"
)

type ActionName string

const (
	ActionSearch            ActionName = "search"
	ActionSummarize         ActionName = "summarize"
	ActionBookmark          ActionName = "bookmark"
	ActionViewBookmarks     ActionName = "view_bookmarks"
	ActionSummarizeBookmark ActionName = "summarize_bookmark"
	ActionViewResults       ActionName = "view_results"
)

type Action struct {
	Name   ActionName
	Query  string
	Choice services.CredentialChoice
	APIKey string
	Index  int
}

// ActionFromRequest converts the wire form of an action.
func ActionFromRequest(req models.ActionRequest) (Action, error) {
	choice, err := services.ParseCredentialChoice(req.CredentialChoice)
	if err != nil {
		return Action{}, err
	}

	action := Action{
		Name:   ActionName(req.Action),
		Query:  req.Query,
		Choice: choice,
		APIKey: req.APIKey,
		Index:  -1,
	}
	switch action.Name {
	case ActionSummarize, ActionBookmark, ActionSummarizeBookmark:
		if req.Index == nil {
			return Action{}, fmt.Errorf("action %q requires an index", req.Action)
		}
		action.Index = *req.Index
	}
	return action, nil
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a user-facing message produced by an action.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

const (
	msgInvalidInput       = "Please enter a valid API Key and a search query."
	msgQuotaExhausted     = "You have used your 2 free searches. Please use your own API key."
	msgNoSharedKey        = "The default API key is not available. Please use your own API key."
	msgUnexpectedFormat   = "Unexpected response format from the API."
	msgUnreachable        = "Could not reach the search API. Please try again later."
	msgNoPapers           = "No papers found."
	msgBookmarked         = "Paper bookmarked successfully!"
	msgNoBookmarks        = "You have no bookmarked papers yet."
	msgInvalidSelection   = "Please select a valid paper."
	msgNothingToSummarize = "This paper has no abstract to summarize."
)

func warning(msg string) Notice { return Notice{Level: LevelWarning, Message: msg} }
func failure(msg string) Notice { return Notice{Level: LevelError, Message: msg} }
