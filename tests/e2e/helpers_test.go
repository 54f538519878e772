//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	cardrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/card"
	cardstaterepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/cardstate"
	dailycountrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/dailycount"
	deckrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/deck"
	invitationrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/invitation"
	noterepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/note"
	relationshiprepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/relationship"
	revieweventrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/reviewevent"
	sessionrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/session"
	syncmetarepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/syncmeta"
	"github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/testhelper"
	userrepo "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/lingocards-backend/internal/config"
	authsvc "github.com/heartmarshall/lingocards-backend/internal/service/auth"
	decksvc "github.com/heartmarshall/lingocards-backend/internal/service/deck"
	progresssvc "github.com/heartmarshall/lingocards-backend/internal/service/progress"
	relationshipsvc "github.com/heartmarshall/lingocards-backend/internal/service/relationship"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
	studysvc "github.com/heartmarshall/lingocards-backend/internal/service/study"
	syncsvc "github.com/heartmarshall/lingocards-backend/internal/service/sync"
	"github.com/heartmarshall/lingocards-backend/internal/transport/middleware"
	"github.com/heartmarshall/lingocards-backend/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	users := userrepo.New(pool)
	sessions := sessionrepo.New(pool)
	decks := deckrepo.New(pool)
	notes := noterepo.New(pool)
	cards := cardrepo.New(pool)
	events := revieweventrepo.New(pool)
	states := cardstaterepo.New(pool)
	daily := dailycountrepo.New(pool)
	syncMeta := syncmetarepo.New(pool)
	relationships := relationshiprepo.New(pool)
	invitations := invitationrepo.New(pool)

	defaults := scheduler.DefaultParameters()

	relationshipService := relationshipsvc.NewService(logger, relationships, invitations, users, txm, 0)
	authService := authsvc.NewService(logger, users, sessions, relationshipService, 0)
	deckService := decksvc.NewService(logger, decks, notes, txm)
	syncService := syncsvc.NewService(logger, events, cards, decks, states, daily, syncMeta, txm, defaults)
	studyService, err := studysvc.NewService(logger, decks, cards, events, states, daily, syncService, defaults, 0, nil)
	require.NoError(t, err)
	progressService := progresssvc.NewService(logger, relationshipService, studyService, decks, events, users)

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewHTTPMetrics(registry)

	router := rest.NewRouter(rest.RouterDeps{
		Auth:         rest.NewAuthHandler(authService, logger),
		Deck:         rest.NewDeckHandler(deckService, logger),
		Study:        rest.NewStudyHandler(studyService, logger),
		Sync:         rest.NewSyncHandler(syncService, logger),
		Relationship: rest.NewRelationshipHandler(relationshipService, logger),
		Progress:     rest.NewProgressHandler(progressService, logger),
		Admin:        rest.NewAdminHandler(studyService, logger),
		Health:       rest.NewHealthHandler(pool, "test-version"),
		TokenAuth:    middleware.Auth(authService),
		Metrics:      httpMetrics,
		Registry:     registry,
		CORS: config.CORSConfig{
			AllowedOrigins:   "*",
			AllowedMethods:   "GET,POST,PATCH,PUT,DELETE,OPTIONS",
			AllowedHeaders:   "Authorization,Content-Type",
			AllowCredentials: true,
			MaxAge:           86400,
		},
		Logger: logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
	}
}

// ---------------------------------------------------------------------------
// HTTP helpers.
// ---------------------------------------------------------------------------

// restRequest sends a JSON request and returns the raw response. The
// caller owns resp.Body.
func restRequest(t *testing.T, ts *testServer, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err, "create request")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err, "do request")
	return resp
}

// doJSON sends a request, asserts the expected status, and decodes the
// response body into a generic map. A 204 yields a nil map.
func doJSON(t *testing.T, ts *testServer, method, path, token string, body any, wantStatus int) map[string]any {
	t.Helper()

	resp := restRequest(t, ts, method, path, token, body)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode, "%s %s", method, path)

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result), "decode response")
	return result
}

// ---------------------------------------------------------------------------
// Account and data seeding helpers.
// ---------------------------------------------------------------------------

const testPassword = "securepassword123"

// uniqueEmail produces an email that cannot collide across tests sharing
// the container.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

// registerUser creates an account through the public API and returns the
// session token and user id.
func registerUser(t *testing.T, ts *testServer, email string) (token string, userID string) {
	t.Helper()

	body := doJSON(t, ts, "POST", "/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": testPassword,
	}, http.StatusCreated)

	token, ok := body["token"].(string)
	require.True(t, ok, "expected token in register response")
	require.NotEmpty(t, token)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "expected user object in register response")
	userID, ok = user["id"].(string)
	require.True(t, ok, "expected user id")

	return token, userID
}

// createDeck creates a deck and returns its id.
func createDeck(t *testing.T, ts *testServer, token, name string) string {
	t.Helper()

	body := doJSON(t, ts, "POST", "/decks", token, map[string]any{
		"name": name,
	}, http.StatusCreated)

	id, ok := body["id"].(string)
	require.True(t, ok, "expected deck id")
	return id
}

// createNote creates a note in the deck and returns the note id plus the
// ids of the generated cards.
func createNote(t *testing.T, ts *testServer, token, deckID, form, gloss string) (noteID string, cardIDs []string) {
	t.Helper()

	body := doJSON(t, ts, "POST", "/decks/"+deckID+"/notes", token, map[string]string{
		"form":  form,
		"gloss": gloss,
	}, http.StatusCreated)

	note, ok := body["note"].(map[string]any)
	require.True(t, ok, "expected note object")
	noteID, ok = note["id"].(string)
	require.True(t, ok, "expected note id")

	cards, ok := body["cards"].([]any)
	require.True(t, ok, "expected cards array")
	for _, c := range cards {
		card, ok := c.(map[string]any)
		require.True(t, ok)
		cardIDs = append(cardIDs, card["id"].(string))
	}
	return noteID, cardIDs
}

// promoteToAdmin flips the admin flag directly in the database. Sessions
// pick it up on the next request because tokens resolve the user row.
func promoteToAdmin(t *testing.T, ts *testServer, userID string) {
	t.Helper()

	_, err := ts.Pool.Exec(context.Background(),
		"UPDATE users SET is_admin = true WHERE id = $1", userID)
	require.NoError(t, err, "promote user to admin")
}
