package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	blogDao "github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	blogModel "github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	uploadService "github.com/Laisky/laisky-portfolio/internal/web/upload/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/blob"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

func TestUploadConfigPrepare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      uploadConfig
		wantKind uploadService.Kind
		wantSlug string
		wantErr  bool
	}{
		{
			name:     "pdf derives title and slug",
			cfg:      uploadConfig{File: "/tmp/Q3 Market Outlook.PDF"},
			wantKind: uploadService.KindPostAttachment,
			wantSlug: "q3-market-outlook",
		},
		{
			name:     "image keeps explicit slug",
			cfg:      uploadConfig{File: "cover.png", Title: "Cover", Slug: "my-cover"},
			wantKind: uploadService.KindPostImage,
			wantSlug: "my-cover",
		},
		{name: "no file", cfg: uploadConfig{}, wantErr: true},
		{name: "no slug derivable", cfg: uploadConfig{File: "!!!.pdf"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := tt.cfg.prepare()
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantKind, kind)
			require.Equal(t, tt.wantSlug, tt.cfg.Slug)
		})
	}
}

func TestUploadAndCreatePost(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := blob.NewMemory("https://cdn.example.com/")
	blog := blogService.New(blogDao.New(docstore.NewMemory()), blogService.Config{})
	cfg := uploadConfig{
		File:     "cover.png",
		Title:    "Cover",
		Slug:     "cover",
		Category: string(blogModel.CategoryFinance),
		Tags:     []string{"macro"},
		Content:  "body",
		Publish:  true,
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	out, err := uploadAndCreatePost(ctx, uploadService.New(store), blog, uploadService.KindPostImage,
		uploadService.File{Name: "cover.png", Size: int64(len(png)), Body: bytes.NewReader(png), Slug: cfg.Slug},
		cfg)
	require.NoError(t, err)
	require.NotEmpty(t, out.DocID)
	require.Regexp(t, `^posts/cover/\d+\.png$`, out.StoragePath)
	require.Equal(t, "https://cdn.example.com/"+out.StoragePath, out.URL)

	_, ok := store.Get(out.StoragePath)
	require.True(t, ok)

	post, err := blog.GetPostByID(ctx, cliPrincipal, out.DocID)
	require.NoError(t, err)
	require.Equal(t, out.URL, post.CoverImageURL)
	require.Empty(t, post.AttachmentURL)
	require.True(t, post.Published)

	// the slug is taken now, the second post fails before anything is uploaded
	fixed := uploadService.New(store, uploadService.WithClock(func() time.Time { return time.UnixMilli(42) }))
	_, err = uploadAndCreatePost(ctx, fixed, blog, uploadService.KindPostImage,
		uploadService.File{Name: "cover.png", Size: int64(len(png)), Body: bytes.NewReader(png), Slug: cfg.Slug},
		cfg)
	require.ErrorIs(t, err, blogModel.ErrSlugTaken)
	_, ok = store.Get("posts/cover/42.png")
	require.False(t, ok)
}

// slugThief creates a post with the same slug between the check and the create
type slugThief struct {
	*blogService.Blog
}

func (b slugThief) CreatePost(ctx context.Context,
	p *auth.Principal, in blogService.PostInput) (*blogModel.Post, error) {
	stolen := in
	stolen.CoverImageURL = ""
	if _, err := b.Blog.CreatePost(ctx, p, stolen); err != nil {
		return nil, err
	}

	return b.Blog.CreatePost(ctx, p, in)
}

func TestUploadAndCreatePostRemovesOrphan(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := blob.NewMemory("https://cdn.example.com/")
	blog := blogService.New(blogDao.New(docstore.NewMemory()), blogService.Config{})
	uploader := uploadService.New(store, uploadService.WithClock(func() time.Time { return time.UnixMilli(42) }))
	cfg := uploadConfig{
		File:     "cover.png",
		Title:    "Cover",
		Slug:     "cover",
		Category: string(blogModel.CategoryFinance),
		Content:  "body",
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	_, err := uploadAndCreatePost(ctx, uploader, slugThief{blog}, uploadService.KindPostImage,
		uploadService.File{Name: "cover.png", Size: int64(len(png)), Body: bytes.NewReader(png), Slug: cfg.Slug},
		cfg)
	require.ErrorIs(t, err, blogModel.ErrSlugTaken)

	_, ok := store.Get("posts/cover/42.png")
	require.False(t, ok, "object of the failed post must be removed")

	// a missing object is reported by Remove
	require.ErrorIs(t, uploader.Remove(ctx, "posts/cover/42.png"), blob.ErrNotFound)
}
