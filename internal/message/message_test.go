package message

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	store "infusesecret/internal/storage/database/message"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenRepo 所有操作皆失敗.
type brokenRepo struct {
	*store.MemoryStore
}

func (brokenRepo) GetByID(context.Context, string) (*store.Record, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func (brokenRepo) ListRecent(context.Context, int) ([]*store.Record, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func setupRouter(t *testing.T, repo store.Repository) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(repo, Options{FrontendURL: "http://localhost:3000"})
	h := NewMessageHandler(svc)

	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	api.GET("/admin/messages", h.ListMessages)
	return r, svc
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHandlerLifecycle(t *testing.T) {
	r, _ := setupRouter(t, store.NewMemoryStore())

	w, created := doJSON(t, r, http.MethodPost, "/api/messages", gin.H{
		"message": "Happy Birthday!",
		"theme":   "friendship",
		"quote":   "Friends are the family we choose",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, created["success"])
	id := created["id"].(string)
	editKey := created["editKey"].(string)
	assert.Equal(t, "http://localhost:3000/#/view/"+id, created["viewUrl"])
	assert.Contains(t, created["qrUrl"], "size=300x300")

	w, view := doJSON(t, r, http.MethodGet, "/api/messages/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Happy Birthday!", view["message"])
	assert.Equal(t, "friendship", view["theme"])
	assert.Nil(t, view["photo_url"])
	assert.NotContains(t, w.Body.String(), editKey)
	assert.NotContains(t, view, "editKey")
	assert.NotContains(t, view, "edit_key_hash")

	w, byKey := doJSON(t, r, http.MethodGet, "/api/messages/edit/"+editKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, byKey["id"])

	w, body := doJSON(t, r, http.MethodPut, "/api/messages/"+id, gin.H{
		"message": "Happy Birthday, again!",
		"editKey": editKey,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Message updated successfully", body["message"])

	w, body = doJSON(t, r, http.MethodPatch, "/api/messages/"+id+"/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	_, view = doJSON(t, r, http.MethodGet, "/api/messages/"+id, nil)
	assert.Equal(t, "Happy Birthday, again!", view["message"])
	assert.Equal(t, float64(1), view["scan_count"])

	w, body = doJSON(t, r, http.MethodDelete, "/api/messages/"+id, gin.H{"editKey": editKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Message deleted successfully", body["message"])

	w, body = doJSON(t, r, http.MethodGet, "/api/messages/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Message not found", body["error"])
	assert.Equal(t, false, body["success"])
}

func TestHandlerErrors(t *testing.T) {
	r, svc := setupRouter(t, store.NewMemoryStore())
	res := mustCreate(t, svc, "keep out", ThemeGeneral)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		error  string
	}{
		{"create invalid theme", http.MethodPost, "/api/messages", gin.H{"message": "x", "theme": "unknown_theme"}, 400, "Invalid theme"},
		{"create empty message", http.MethodPost, "/api/messages", gin.H{"message": "", "theme": "general"}, 400, "Message is required"},
		{"create malformed json", http.MethodPost, "/api/messages", "{not json", 400, "Invalid request body"},
		{"get unknown", http.MethodGet, "/api/messages/ffffffffffffffff", nil, 404, "Message not found"},
		{"get by bad key", http.MethodGet, "/api/messages/edit/" + strings.Repeat("0", 32), nil, 404, "Invalid edit key"},
		{"update wrong key", http.MethodPut, "/api/messages/" + res.ID, gin.H{"message": "x", "editKey": strings.Repeat("0", 32)}, 403, "Invalid edit key or message not found"},
		{"update missing key", http.MethodPut, "/api/messages/" + res.ID, gin.H{"message": "x"}, 400, "Edit key is required"},
		{"delete wrong key", http.MethodDelete, "/api/messages/" + res.ID, gin.H{"editKey": strings.Repeat("0", 32)}, 403, "Invalid edit key"},
		{"delete empty body", http.MethodDelete, "/api/messages/" + res.ID, nil, 400, "Edit key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.error, body["error"])
			assert.Equal(t, false, body["success"])
		})
	}

	// 失敗的授權不得改變記錄
	view, err := svc.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep out", view.Message)
}

func TestHandlerScanUnknownIsSuccess(t *testing.T) {
	r, _ := setupRouter(t, store.NewMemoryStore())

	w, body := doJSON(t, r, http.MethodPatch, "/api/messages/ffffffffffffffff/scan", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestHandlerStorageFailureHidesDetails(t *testing.T) {
	r, _ := setupRouter(t, brokenRepo{store.NewMemoryStore()})

	w, body := doJSON(t, r, http.MethodGet, "/api/messages/ffffffffffffffff", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, w.Body.String(), "10.0.0.5")

	w, _ = doJSON(t, r, http.MethodGet, "/api/admin/messages", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandlerListMessages(t *testing.T) {
	r, svc := setupRouter(t, store.NewMemoryStore())
	for i := 0; i < 3; i++ {
		mustCreate(t, svc, strings.Repeat("x", 60), ThemeMotivation)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/messages?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Len(t, list[0].MessagePreview, 50)
	assert.Equal(t, ThemeMotivation, list[0].Theme)
	assert.NotContains(t, w.Body.String(), "edit")
}
