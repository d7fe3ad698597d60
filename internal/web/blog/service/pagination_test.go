package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	c := &Cursor{Category: model.CategoryEconomy, ID: "abc"}
	got, err := DecodeCursor(c.Encode())
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
	require.Equal(t, c.Category, got.Category)

	for _, token := range []string{"%%%", "bm90IGpzb24", (&Cursor{}).Encode()} {
		_, err = DecodeCursor(token)
		require.ErrorIs(t, err, model.ErrValidation, token)
	}
}

func TestPageSizeTwoOverFive(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	for i := 0; i < 5; i++ {
		mustCreatePost(t, svc, fmt.Sprintf("post %d", i), model.CategoryFinance, true)
	}

	var (
		cursor string
		sizes  []int
		more   []bool
	)
	for i := 0; i < 3; i++ {
		page, err := svc.ListPublishedPosts(ctx, PageRequest{Size: 2, Cursor: cursor})
		require.NoError(t, err)
		sizes = append(sizes, len(page.Posts))
		more = append(more, page.HasMore)
		cursor = page.NextCursor
	}

	require.Equal(t, []int{2, 2, 1}, sizes)
	require.Equal(t, []bool{true, true, false}, more)
	require.Empty(t, cursor)
}

// TestPageSizeTwoOverFour a full last page reports no more posts
func TestPageSizeTwoOverFour(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	for i := 0; i < 4; i++ {
		mustCreatePost(t, svc, fmt.Sprintf("post %d", i), model.CategoryFinance, true)
	}

	first, err := svc.ListPublishedPosts(ctx, PageRequest{Size: 2})
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListPublishedPosts(ctx, PageRequest{Size: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Posts, 2)
	require.False(t, second.HasMore)
	require.Empty(t, second.NextCursor)
	require.NotEqual(t, first.Posts[1].ID, second.Posts[0].ID)
}

func TestPagesHaveNoGapsOrDuplicates(t *testing.T) {
	t.Parallel()

	clocks := map[string]func() func() time.Time{
		"distinct createdAt": steppingClock,
		"shared createdAt":   fixedClock,
	}

	for name, clock := range clocks {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestBlog(t, clock())
			ctx := t.Context()

			want := map[model.Category]int{}
			for i := 0; i < 13; i++ {
				category := model.Categories[i%len(model.Categories)]
				published := i%4 != 3
				mustCreatePost(t, svc, fmt.Sprintf("post %d", i), category, published)
				if published {
					want[category]++
					want[""]++
				}
			}

			for _, category := range []model.Category{"", model.CategoryFinance, model.CategoryEconomy} {
				for size := 1; size <= 14; size++ {
					feed := svc.NewFeed(category, size)
					seen := map[string]bool{}
					var all []*model.Post
					for feed.HasMore() {
						page, err := feed.Next(ctx)
						require.NoError(t, err)
						require.LessOrEqual(t, len(page.Posts), size)
						all = append(all, page.Posts...)
					}

					require.Len(t, all, want[category], "category %q size %d", category, size)
					for i, post := range all {
						require.False(t, seen[post.ID], "duplicate %s", post.ID)
						seen[post.ID] = true
						require.True(t, post.Published)
						if category != "" {
							require.Equal(t, category, post.Category)
						}

						if i == 0 {
							continue
						}
						prev := all[i-1]
						require.False(t, post.CreatedAt.After(prev.CreatedAt))
						if post.CreatedAt.Equal(prev.CreatedAt) {
							require.Less(t, prev.ID, post.ID)
						}
					}
				}
			}
		})
	}
}

func TestCursorFromAnotherCategoryIsIgnored(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		mustCreatePost(t, svc, fmt.Sprintf("finance %d", i), model.CategoryFinance, true)
		mustCreatePost(t, svc, fmt.Sprintf("economy %d", i), model.CategoryEconomy, true)
	}

	finance, err := svc.ListPublishedPosts(ctx, PageRequest{Category: model.CategoryFinance, Size: 1})
	require.NoError(t, err)
	require.True(t, finance.HasMore)

	first, err := svc.ListPublishedPosts(ctx, PageRequest{Category: model.CategoryEconomy, Size: 2})
	require.NoError(t, err)
	mixed, err := svc.ListPublishedPosts(ctx, PageRequest{
		Category: model.CategoryEconomy,
		Size:     2,
		Cursor:   finance.NextCursor,
	})
	require.NoError(t, err)
	require.Equal(t, first, mixed)

	_, err = svc.ListPublishedPosts(ctx, PageRequest{Category: "sports"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestFeedSetCategoryClearsCursor(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	for i := 0; i < 4; i++ {
		mustCreatePost(t, svc, fmt.Sprintf("post %d", i), model.Categories[i%2], true)
	}

	feed := svc.NewFeed("", 1)
	_, err := feed.Next(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, feed.Cursor())

	feed.SetCategory(model.CategoryEconomy)
	require.Empty(t, feed.Cursor())
	require.Equal(t, model.CategoryEconomy, feed.Category())

	var n int
	for feed.HasMore() {
		page, err := feed.Next(ctx)
		require.NoError(t, err)
		n += len(page.Posts)
	}
	require.Equal(t, 2, n)

	// exhausted feeds return empty pages
	page, err := feed.Next(ctx)
	require.NoError(t, err)
	require.Empty(t, page.Posts)
}
