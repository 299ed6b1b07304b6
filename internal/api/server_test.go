package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawgichan/lucid/internal/db"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/services"
	"github.com/shawgichan/lucid/internal/session"
	"github.com/shawgichan/lucid/internal/token"
	"github.com/shawgichan/lucid/internal/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testServer struct {
	server      *Server
	scholarHits int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}

	scholar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.scholarHits++
		if r.URL.Query().Get("query") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"total": 1, "data": [{"paperId": "p1", "title": "Graph Networks", "abstract": "About graphs.", "url": "https://example.org/p1"}]}`))
	}))
	t.Cleanup(scholar.Close)

	summarizer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"summary_text": "Graphs, briefly."}]`))
	}))
	t.Cleanup(summarizer.Close)

	config := util.Config{
		Environment:         "test",
		SemanticAPIKey:      "shared-key",
		AccessTokenDuration: 15 * time.Minute,
	}
	logger := applogger.Discard()
	store := db.NewMemoryStore()
	maker, err := token.NewJWTMaker("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	registry := session.NewRegistry()
	searchSvc := services.NewSearchService(store, services.NewScholarClient(scholar.URL, scholar.Client(), logger), config.SemanticAPIKey, logger)
	summarySvc := services.NewSummaryService(summarizer.URL, "", summarizer.Client(), logger)
	controller := session.NewController(searchSvc, summarySvc, store, logger)
	authSvc := services.NewAuthService(store, maker, registry, config, logger)

	ts.server = NewServer(config, authSvc, searchSvc, controller, registry, maker, logger)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, accessToken string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	rec := httptest.NewRecorder()
	ts.server.Router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (ts *testServer) register(t *testing.T, username string) models.LoginUserResponse {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", models.RegisterUserRequest{Username: username, Password: "password123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.LoginUserResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func searchRequest(query string) models.ActionRequest {
	return models.ActionRequest{Action: "search", Query: query, CredentialChoice: "shared"}
}

func decodeAction(t *testing.T, env envelope) actionResponse {
	t.Helper()
	var resp actionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.server.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	reg := ts.register(t, "alice")
	assert.NotEmpty(t, reg.AccessToken)

	rec, env := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", models.RegisterUserRequest{Username: "alice", Password: "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, services.ErrUserAlreadyExists.Error(), env.Error)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "al"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginUserRequest{Username: "alice", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginUserRequest{Username: "alice", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login models.LoginUserResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/session", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/auth/logout", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the token is still valid but its session is gone
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/session", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the registration session is unaffected
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/session", reg.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/session", "/api/v1/history", "/api/v1/bookmarks"} {
		rec, _ := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec, _ = ts.do(t, http.MethodGet, path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestSessionSearchQuotaAndBookmarks(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.register(t, "alice").AccessToken

	rec, env := ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, searchRequest("graphs"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAction(t, env)
	require.Len(t, resp.View.State.Results, 1)
	assert.Equal(t, "p1", resp.View.State.Results[0].PaperID)
	assert.Equal(t, 1, resp.View.FreeSearchesLeft)
	assert.Empty(t, resp.Notices)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, searchRequest("broken"))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeAction(t, env)
	assert.Empty(t, resp.View.State.Results)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, "API request failed with status code 500", resp.Notices[0].Message)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, searchRequest("graphs"))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeAction(t, env)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, session.LevelError, resp.Notices[0].Level)
	assert.Equal(t, 2, ts.scholarHits)

	own := models.ActionRequest{Action: "search", Query: "graphs", CredentialChoice: "own", APIKey: "mine"}
	rec, env = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, own)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeAction(t, env)
	require.Len(t, resp.View.State.Results, 1)

	idx := 0
	rec, env = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, models.ActionRequest{Action: "summarize", Index: &idx})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeAction(t, env)
	require.NotNil(t, resp.View.State.Selection)
	assert.Equal(t, "Graphs, briefly.", resp.View.State.Selection.Summary)

	for i := 0; i < 2; i++ {
		rec, env = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, models.ActionRequest{Action: "bookmark", Index: &idx})
		require.Equal(t, http.StatusOK, rec.Code)
		resp = decodeAction(t, env)
		assert.Equal(t, "Paper bookmarked successfully!", resp.Notices[0].Message)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/bookmarks", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bookmarks []models.Bookmark
	require.NoError(t, json.Unmarshal(env.Data, &bookmarks))
	assert.Len(t, bookmarks, 2)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/history", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "graphs", history[0].Query)
	assert.Equal(t, "broken", history[1].Query)
}

func TestSessionActionValidation(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.register(t, "alice").AccessToken

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, map[string]string{"action": "dance"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, models.ActionRequest{Action: "bookmark"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	idx := 4
	rec, env := ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, models.ActionRequest{Action: "bookmark", Index: &idx})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAction(t, env)
	assert.Equal(t, session.LevelWarning, resp.Notices[0].Level)
}

func TestStoreCredential(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.register(t, "alice").AccessToken

	rec, _ := ts.do(t, http.MethodPut, "/api/v1/credential", tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := ts.do(t, http.MethodPut, "/api/v1/credential", tok, models.StoreCredentialRequest{APIKey: "mine"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cred models.CredentialResponse
	require.NoError(t, json.Unmarshal(env.Data, &cred))
	assert.True(t, cred.Stored)

	// an own-key search with no key in the request reuses the stored one
	rec, env = ts.do(t, http.MethodPost, "/api/v1/session/actions", tok, models.ActionRequest{Action: "search", Query: "graphs", CredentialChoice: "own"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAction(t, env)
	assert.Empty(t, resp.Notices)
	assert.Len(t, resp.View.State.Results, 1)
}
