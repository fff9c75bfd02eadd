package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/entities"
)

func TestReadingLists_Lifecycle(t *testing.T) {
	env, cleanup := setupRouter(t, config.AuthModeNone)
	defer cleanup()

	w := env.do(http.MethodPost, "/api/v1/books", `{"title": "To read"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/v1/reading-lists", `{"name": "Winter pile"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var list entities.ReadingList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	listPath := fmt.Sprintf("/api/v1/reading-lists/%d", list.ID)

	w = env.do(http.MethodPost, listPath+"/books/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Adding the same book twice conflicts
	w = env.do(http.MethodPost, listPath+"/books/1", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodGet, listPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched entities.ReadingList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	require.Len(t, fetched.Books, 1)
	assert.Equal(t, "To read", fetched.Books[0].Title)

	w = env.do(http.MethodDelete, listPath+"/books/1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPut, listPath, `{"name": "Spring pile", "is_public": true}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, listPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, listPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadingLists_AddUnknownBook(t *testing.T) {
	env, cleanup := setupRouter(t, config.AuthModeNone)
	defer cleanup()

	w := env.do(http.MethodPost, "/api/v1/reading-lists", `{"name": "Empty"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/v1/reading-lists/1/books/99", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadingLists_PrivacyIsNotEnumerable(t *testing.T) {
	env, cleanup := setupRouter(t, config.AuthModeLocal)
	defer cleanup()

	alice, err := env.authSvc.Register("alice", "alice@example.com", "password123", entities.RoleUser)
	require.NoError(t, err)
	aliceToken, err := env.authSvc.IssueToken(alice.ID)
	require.NoError(t, err)
	aliceHdr := map[string]string{"Authorization": "Bearer " + aliceToken}

	bob, err := env.authSvc.Register("bob", "bob@example.com", "password123", entities.RoleUser)
	require.NoError(t, err)
	bobToken, err := env.authSvc.IssueToken(bob.ID)
	require.NoError(t, err)
	bobHdr := map[string]string{"Authorization": "Bearer " + bobToken}

	w := env.do(http.MethodPost, "/api/v1/reading-lists", `{"name": "Secret"}`, aliceHdr)
	require.Equal(t, http.StatusCreated, w.Code)
	var private entities.ReadingList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &private))

	w = env.do(http.MethodPost, "/api/v1/reading-lists", `{"name": "Shared", "is_public": true}`, aliceHdr)
	require.Equal(t, http.StatusCreated, w.Code)
	var public entities.ReadingList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &public))

	privatePath := fmt.Sprintf("/api/v1/reading-lists/%d", private.ID)
	publicPath := fmt.Sprintf("/api/v1/reading-lists/%d", public.ID)

	// Private lists look like they do not exist to other users
	w = env.do(http.MethodGet, privatePath, "", bobHdr)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, privatePath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Public lists are readable by anyone
	w = env.do(http.MethodGet, publicPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Owner still sees their private list
	w = env.do(http.MethodGet, privatePath, "", aliceHdr)
	assert.Equal(t, http.StatusOK, w.Code)

	// Listing only returns the caller's own lists
	w = env.do(http.MethodGet, "/api/v1/reading-lists", "", bobHdr)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 0, listing.Count)

	// Bob cannot modify Alice's public list
	w = env.do(http.MethodPut, publicPath, `{"name": "Hijacked"}`, bobHdr)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
