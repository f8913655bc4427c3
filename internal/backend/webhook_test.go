package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"haoshi-console/internal/backend"
	"haoshi-console/internal/config"
	"haoshi-console/internal/models"
)

func newClient(t *testing.T, handler http.HandlerFunc) *backend.WebhookClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Webhook
	cfg.BaseURL = srv.URL
	cfg.RetryCount = 0
	cfg.Token = "svc-token"
	return backend.NewWebhookClient(cfg, zap.NewNop())
}

func TestWebhookClient_FetchAll(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/all-data", r.URL.Path)
		require.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{
			"properties_for_sale": [{"id": 1, "community_name": "威均天翔", "total_price": "1200"}],
			"communities": "not-an-array"
		}`)
	})

	snap, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Properties)
	require.Len(t, *snap.Properties, 1)
	require.Equal(t, models.Text("1"), (*snap.Properties)[0].ID)
	require.NotNil(t, snap.Communities)
	require.Empty(t, *snap.Communities)
	require.Nil(t, snap.Users)
}

func TestWebhookClient_FetchAllHTTPError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.FetchAll(context.Background())
	require.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestWebhookClient_MutateEnvelope(t *testing.T) {
	var got map[string]any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/communities", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":"success","data":{"id":"c9","community_name":"新社區"}}`)
	})

	resp, err := client.Mutate(context.Background(), models.EntityCommunity, backend.MutationRequest{
		Action: backend.ActionUpdate,
		User:   "錦宣",
		ID:     "c9",
		Data:   map[string]any{"community_name": "新社區"},
	})
	require.NoError(t, err)
	require.True(t, resp.HasData())
	require.Equal(t, "update", got["action"])
	require.Equal(t, "錦宣", got["user"])
	require.Equal(t, "c9", got["id"])
	require.Equal(t, map[string]any{"community_name": "新社區"}, got["data"])
}

func TestWebhookClient_DeleteOmitsData(t *testing.T) {
	var raw string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
	})

	resp, err := client.Mutate(context.Background(), models.EntityUser, backend.MutationRequest{
		Action: backend.ActionDelete, User: "admin", ID: "u1",
	})
	require.NoError(t, err)
	require.Equal(t, "success", resp.Status)
	require.False(t, resp.HasData())
	require.False(t, strings.Contains(raw, `"data"`))
}

func TestWebhookClient_Rejected(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"duplicate"}`)
	})
	_, err := client.Mutate(context.Background(), models.EntityProperty, backend.MutationRequest{Action: "create"})
	require.ErrorIs(t, err, backend.ErrRejected)
}

func TestWebhookClient_UploadPhotos(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/photos/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "p1", r.FormValue("property_id"))
		require.Equal(t, "錦宣", r.FormValue("user"))
		require.Len(t, r.MultipartForm.File["file"], 2)
		_, _ = io.WriteString(w, `{"status":"success","files":[{"public_url":"https://cdn/a.jpg"},{"public_url":"https://cdn/b.jpg"}]}`)
	})

	urls, err := client.UploadPhotos(context.Background(), "p1", "錦宣", []backend.PhotoFile{
		{Name: "a.jpg", Reader: strings.NewReader("aaa")},
		{Name: "b.jpg", Reader: strings.NewReader("bbb")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, urls)
}
