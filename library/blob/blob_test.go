package blob

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObjectPaths(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"post image", PostObjectPath("my-post", "Cover.PNG", now), "posts/my-post/1700000000123.png"},
		{"post pdf", PostObjectPath("my-post", "report.pdf", now), "posts/my-post/1700000000123.pdf"},
		{"no extension", PostObjectPath("my-post", "README", now), "posts/my-post/1700000000123"},
		{"profile", ProfileObjectPath("me.jpg", now), "profile/1700000000123.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.got)
		})
	}
}

func TestCheckSize(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckSize(MaxImageSize, MaxImageSize))
	require.ErrorIs(t, CheckSize(MaxImageSize+1, MaxImageSize), ErrTooLarge)
	require.NoError(t, CheckSize(MaxImageSize+1, MaxPDFSize))
}

func TestMemoryPutDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemory("https://cdn.example.com/")

	url, err := store.Put(ctx, "profile/1.jpg", "image/jpeg", strings.NewReader("jpeg"), 4)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/profile/1.jpg", url)

	obj, ok := store.Get("profile/1.jpg")
	require.True(t, ok)
	require.Equal(t, "image/jpeg", obj.ContentType)
	require.Equal(t, []byte("jpeg"), obj.Data)

	require.NoError(t, store.Delete(ctx, "profile/1.jpg"))
	require.ErrorIs(t, store.Delete(ctx, "profile/1.jpg"), ErrNotFound)
}
