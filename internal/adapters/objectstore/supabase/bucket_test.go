package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sbplatform "bovine-monitoring/internal/platform/supabase"
	"bovine-monitoring/internal/ports/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBucket(t *testing.T, h http.HandlerFunc) *Bucket {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	sb, err := sbplatform.NewClient(sbplatform.Config{URL: ts.URL, ServiceRoleKey: "svc"})
	require.NoError(t, err)
	b, err := NewBucket(sb, "monitoreo_bovinos_IA")
	require.NoError(t, err)
	return b
}

func TestBucket_Upload(t *testing.T) {
	b := newBucket(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/monitoreo_bovinos_IA/perfiles/u-1/a b.png", r.URL.Path)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Equal(t, "max-age=3600", r.Header.Get("Cache-Control"))
		assert.Equal(t, "Bearer svc", r.Header.Get("Authorization"))

		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("png"), data)
		_, _ = w.Write([]byte(`{"Key":"monitoreo_bovinos_IA/perfiles/u-1/a b.png"}`))
	})

	err := b.Upload(context.Background(), "perfiles/u-1/a b.png", []byte("png"), objectstore.UploadOptions{ContentType: "image/png", CacheControl: "3600"})
	require.NoError(t, err)
}

func TestBucket_Upload_Error(t *testing.T) {
	b := newBucket(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
	})

	err := b.Upload(context.Background(), "bovinos/u-1/x.jpg", []byte("x"), objectstore.UploadOptions{ContentType: "image/jpeg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestBucket_Delete(t *testing.T) {
	deleted := map[string]bool{"bovinos/u-1/a.jpg": true}
	b := newBucket(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/object/monitoreo_bovinos_IA", r.URL.Path)

		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		out := make([]map[string]string, 0)
		for _, p := range body.Prefixes {
			if deleted[p] {
				out = append(out, map[string]string{"name": p})
				delete(deleted, p)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	require.NoError(t, b.Delete(context.Background(), "bovinos/u-1/a.jpg"))
	assert.ErrorIs(t, b.Delete(context.Background(), "bovinos/u-1/a.jpg"), objectstore.ErrNotFound)
	assert.NoError(t, b.Delete(context.Background()))
}

func TestBucket_List(t *testing.T) {
	b := newBucket(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/list/monitoreo_bovinos_IA", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bovinos/u-1", body["prefix"])

		_, _ = w.Write([]byte(`[
			{"name":"sub","id":null,"metadata":null},
			{"name":"a.jpg","id":"1","updated_at":"2024-05-06T07:08:09.123Z","metadata":{"size":2048,"mimetype":"image/jpeg"}}
		]`))
	})

	items, err := b.List(context.Background(), "bovinos/u-1/")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "bovinos/u-1/a.jpg", items[0].Path)
	assert.Equal(t, int64(2048), items[0].Size)
	assert.Equal(t, "image/jpeg", items[0].ContentType)
	assert.Equal(t, 2024, items[0].UpdatedAt.Year())
}

func TestBucket_PublicURL(t *testing.T) {
	sb, err := sbplatform.NewClient(sbplatform.Config{URL: "https://x.supabase.co", AnonKey: "anon"})
	require.NoError(t, err)
	b, err := NewBucket(sb, "monitoreo_bovinos_IA")
	require.NoError(t, err)

	assert.Equal(t,
		"https://x.supabase.co/storage/v1/object/public/monitoreo_bovinos_IA/perfiles/u-1/foto%20nueva.png",
		b.PublicURL("perfiles/u-1/foto nueva.png"))

	_, err = NewBucket(sb, "")
	assert.Error(t, err)
}
