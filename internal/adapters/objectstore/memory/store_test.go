package memory

import (
	"context"
	"testing"
	"time"

	"bovine-monitoring/internal/ports/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UploadListDelete(t *testing.T) {
	s := NewStore("http://localhost:8000/files/")
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	opts := objectstore.UploadOptions{ContentType: "image/png"}
	require.NoError(t, s.Upload(ctx, "bovinos/u-1/a.png", []byte("aa"), opts))
	now = now.Add(time.Minute)
	require.NoError(t, s.Upload(ctx, "bovinos/u-1/b.png", []byte("bbb"), opts))
	require.NoError(t, s.Upload(ctx, "bovinos/u-1/sub/c.png", []byte("c"), opts))
	require.NoError(t, s.Upload(ctx, "bovinos/u-12/d.png", []byte("d"), opts))
	assert.Error(t, s.Upload(ctx, "bovinos/u-1/a.png", []byte("x"), opts))

	items, err := s.List(ctx, "bovinos/u-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "bovinos/u-1/b.png", items[0].Path)
	assert.Equal(t, int64(3), items[0].Size)
	assert.Equal(t, "image/png", items[0].ContentType)

	assert.Equal(t, "http://localhost:8000/files/bovinos/u-1/a.png", s.PublicURL("bovinos/u-1/a.png"))

	require.NoError(t, s.Delete(ctx, "bovinos/u-1/a.png"))
	assert.ErrorIs(t, s.Delete(ctx, "bovinos/u-1/a.png"), objectstore.ErrNotFound)
}
