//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_Admin_Reproject_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)

	// Anonymous callers are rejected outright.
	resp := restRequest(t, ts, "POST", "/admin/reproject", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A regular account is authenticated but not authorized.
	token, _ := registerUser(t, ts, uniqueEmail("plain"))
	resp2 := restRequest(t, ts, "POST", "/admin/reproject", token, nil)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}

func TestE2E_Admin_Reproject_RebuildsStates(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := registerUser(t, ts, uniqueEmail("admin"))
	promoteToAdmin(t, ts, userID)

	// Seed some reviewed cards so the rebuild has work to do.
	deckID := createDeck(t, ts, token, "Admin Deck")
	_, cardIDs := createNote(t, ts, token, deckID, "mar", "sea")
	doJSON(t, ts, "POST", "/study/review", token, map[string]any{
		"card_id": cardIDs[0],
		"rating":  2,
	}, http.StatusCreated)

	before := doJSON(t, ts, "GET", "/cards/"+cardIDs[0]+"/state", token, nil, http.StatusOK)

	body := doJSON(t, ts, "POST", "/admin/reproject", token, nil, http.StatusOK)
	reprojected, ok := body["reprojected"].(float64)
	require.True(t, ok, "expected reprojected count")
	assert.GreaterOrEqual(t, int(reprojected), 1)

	// Replaying the log lands on the same projection.
	after := doJSON(t, ts, "GET", "/cards/"+cardIDs[0]+"/state", token, nil, http.StatusOK)
	assert.Equal(t, before["queue"], after["queue"])
	assert.Equal(t, before["reps"], after["reps"])
	assert.Equal(t, before["due"], after["due"])
}

func TestE2E_Health_Probes(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/live", "/ready", "/health"} {
		resp := restRequest(t, ts, "GET", path, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	// Metrics endpoint serves the registry.
	resp := restRequest(t, ts, "GET", "/metrics", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
