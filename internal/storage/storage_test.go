package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/jjudge-oj/imageforms/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(NewMemoryStorage("images"))
	require.NoError(t, s.EnsureBucket(ctx))
	assert.Equal(t, "images", s.Bucket())

	require.NoError(t, s.Put(ctx, "a/b.png", strings.NewReader("data"), 4, "image/png"))

	obj, err := s.Get(ctx, "a/b.png")
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, obj.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(4), obj.Size)

	require.NoError(t, s.Delete(ctx, "a/b.png"))
	_, err = s.Get(ctx, "a/b.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestImageKey(t *testing.T) {
	key := ImageKey("multiple", "Holiday.JPG")
	assert.True(t, strings.HasPrefix(key, "images/multiple/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.NotEqual(t, key, ImageKey("multiple", "Holiday.JPG"))

	assert.NotContains(t, ImageKey("single", `..\..\etc\passwd`), "..")
	assert.False(t, strings.Contains(ImageKey("single", "x.p ng"), " "))
	assert.Equal(t, 0, strings.Count(strings.TrimPrefix(ImageKey("single", "noext"), "images/single/"), "."))
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	backend, err := Open(ctx, config.StorageConfig{Backend: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, backend)

	_, err = Open(ctx, config.StorageConfig{Backend: "ftp"})
	assert.ErrorContains(t, err, "ftp")
}
