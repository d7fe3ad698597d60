package service

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

var (
	testAdmin = &auth.Principal{UID: "root", Email: "root@example.com", Role: auth.RoleAdmin}
	testAlice = &auth.Principal{UID: "alice", DisplayName: "Alice", Role: auth.RoleUser}
	testBob   = &auth.Principal{UID: "bob", Email: "bob@example.com", Role: auth.RoleUser}
)

// steppingClock advances one minute on every call
func steppingClock() func() time.Time {
	var (
		mu  sync.Mutex
		now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestBlog(t *testing.T, clock func() time.Time) (*Blog, *docstore.Memory) {
	t.Helper()

	store := docstore.NewMemory(docstore.WithClock(clock))
	return New(dao.New(store), Config{}), store
}

func mustCreatePost(t *testing.T, svc *Blog, title string, category model.Category, published bool) *model.Post {
	t.Helper()

	post, err := svc.CreatePost(t.Context(), testAdmin, PostInput{
		Title:     title,
		Content:   "## " + title + "\n\nbody",
		Category:  category,
		Published: published,
	})
	require.NoError(t, err)
	return post
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	svc := New(nil, Config{PageSize: 1000})
	require.Equal(t, MaxPageSize, svc.cfg.PageSize)
	require.Equal(t, defaultViewTimeout, svc.cfg.ViewTimeout)
	require.Equal(t, defaultAuthorName, svc.cfg.AuthorName)

	svc = New(nil, Config{})
	require.Equal(t, DefaultPageSize, svc.cfg.PageSize)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post, err := svc.CreatePost(ctx, testAdmin, PostInput{
		Title:    "  Rates & Inflation 2026 ",
		Content:  "hello",
		Category: "Finance",
		Tags:     []string{" macro ", "Macro", "", "rates"},
	})
	require.NoError(t, err)
	require.Equal(t, "rates-inflation-2026", post.Slug)
	require.Equal(t, "Rates & Inflation 2026", post.Title)
	require.Equal(t, model.CategoryFinance, post.Category)
	require.Equal(t, []string{"macro", "rates"}, post.Tags)
	require.Equal(t, defaultAuthorName, post.AuthorName)
	require.Zero(t, post.ViewCount)
	require.Zero(t, post.CommentCount)
	require.False(t, post.CreatedAt.IsZero())
	require.Nil(t, post.PublishedAt)

	t.Run("slug taken", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, testAdmin, PostInput{
			Title:    "Rates, inflation 2026",
			Content:  "again",
			Category: model.CategoryEconomy,
		})
		require.ErrorIs(t, err, model.ErrSlugTaken)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   PostInput
		}{
			{"no title", PostInput{Content: "x", Category: model.CategoryFinance}},
			{"no content", PostInput{Title: "x", Category: model.CategoryFinance}},
			{"bad category", PostInput{Title: "x", Content: "x", Category: "sports"}},
			{"bad slug", PostInput{Slug: "Bad Slug", Title: "x", Content: "x", Category: model.CategoryFinance}},
			{"bad cover", PostInput{Title: "x", Content: "x", Category: model.CategoryFinance, CoverImageURL: "not a url"}},
		}
		for _, tt := range tests {
			_, err := svc.CreatePost(ctx, testAdmin, tt.in)
			require.ErrorIs(t, err, model.ErrValidation, tt.name)
		}
	})

	t.Run("non admin", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, testAlice, PostInput{Title: "x", Content: "x", Category: model.CategoryFinance})
		require.ErrorIs(t, err, auth.ErrForbidden)

		_, err = svc.CreatePost(ctx, auth.Anonymous, PostInput{Title: "x", Content: "x", Category: model.CategoryFinance})
		require.ErrorIs(t, err, auth.ErrUnauthorized)
	})
}

func TestPublishedAtSetOnce(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post := mustCreatePost(t, svc, "draft", model.CategoryFinance, false)
	require.Nil(t, post.PublishedAt)

	post, err := svc.TogglePublish(ctx, testAdmin, post.ID)
	require.NoError(t, err)
	require.True(t, post.Published)
	require.NotNil(t, post.PublishedAt)
	first := *post.PublishedAt

	// unrelated edit while published
	post, err = svc.UpdatePost(ctx, testAdmin, post.ID, PostInput{
		Title: "draft", Content: "edited", Category: model.CategoryFinance, Published: true,
	})
	require.NoError(t, err)
	require.Equal(t, "edited", post.Content)
	require.True(t, first.Equal(*post.PublishedAt))

	// unpublish then publish again
	post, err = svc.TogglePublish(ctx, testAdmin, post.ID)
	require.NoError(t, err)
	require.False(t, post.Published)
	require.True(t, first.Equal(*post.PublishedAt))

	post, err = svc.TogglePublish(ctx, testAdmin, post.ID)
	require.NoError(t, err)
	require.True(t, post.Published)
	require.True(t, first.Equal(*post.PublishedAt))
}

func TestUpdatePostKeepsSlugAndCounters(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	a := mustCreatePost(t, svc, "first post", model.CategoryFinance, true)
	b := mustCreatePost(t, svc, "second post", model.CategoryFinance, true)
	_, err := svc.AddComment(ctx, testAlice, a.ID, "hi")
	require.NoError(t, err)

	got, err := svc.UpdatePost(ctx, testAdmin, a.ID, PostInput{
		Title: "renamed", Content: "x", Category: model.CategoryEconomy, Published: true,
	})
	require.NoError(t, err)
	require.Equal(t, "first-post", got.Slug)
	require.Equal(t, int64(1), got.CommentCount)
	require.True(t, a.CreatedAt.Equal(got.CreatedAt))

	_, err = svc.UpdatePost(ctx, testAdmin, a.ID, PostInput{
		Slug: b.Slug, Title: "renamed", Content: "x", Category: model.CategoryEconomy,
	})
	require.ErrorIs(t, err, model.ErrSlugTaken)

	_, err = svc.UpdatePost(ctx, testAdmin, "missing", PostInput{Title: "x", Content: "x", Category: model.CategoryEconomy})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDraftHiddenFromPublic(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	draft := mustCreatePost(t, svc, "secret plan", model.CategoryEconomy, false)

	_, err := svc.GetPostBySlug(ctx, auth.Anonymous, draft.Slug)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.GetPostBySlug(ctx, testAlice, draft.Slug)
	require.ErrorIs(t, err, model.ErrNotFound)

	view, err := svc.GetPostBySlug(ctx, testAdmin, draft.Slug)
	require.NoError(t, err)
	require.Contains(t, view.HTML, `<h2 id="header-secretplan">secret plan</h2>`)
	require.Len(t, view.Menu, 1)

	page, err := svc.ListPublishedPosts(ctx, PageRequest{})
	require.NoError(t, err)
	require.Empty(t, page.Posts)

	page, err = svc.ListAllPosts(ctx, testAdmin, PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)

	_, err = svc.ListAllPosts(ctx, testAlice, PageRequest{})
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestDeletePostRemovesComments(t *testing.T) {
	t.Parallel()
	svc, store := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post := mustCreatePost(t, svc, "to delete", model.CategoryFinance, true)
	for i := 0; i < 3; i++ {
		_, err := svc.AddComment(ctx, testAlice, post.ID, fmt.Sprintf("c%d", i))
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeletePost(ctx, testAdmin, post.ID))

	docs, err := store.List(ctx, dao.CommentsCol(post.ID), docstore.Query{})
	require.NoError(t, err)
	require.Empty(t, docs)

	_, err = svc.GetPostByID(ctx, testAdmin, post.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, svc.DeletePost(ctx, testAdmin, post.ID), model.ErrNotFound)
}

func TestCommentCountMatchesLiveComments(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post := mustCreatePost(t, svc, "busy post", model.CategoryFinance, true)
	users := []*auth.Principal{testAlice, testBob}
	rnd := rand.New(rand.NewSource(42)) // nolint: gosec

	var live []*model.Comment
	for i := 0; i < 200; i++ {
		if len(live) == 0 || rnd.Intn(3) > 0 {
			c, err := svc.AddComment(ctx, users[rnd.Intn(len(users))], post.ID, fmt.Sprintf("comment %d", i))
			require.NoError(t, err)
			live = append(live, c)
		} else {
			idx := rnd.Intn(len(live))
			victim := live[idx]
			by := testAdmin
			if rnd.Intn(2) == 0 {
				by = &auth.Principal{UID: victim.AuthorID, Role: auth.RoleUser}
			}
			require.NoError(t, svc.DeleteComment(ctx, by, post.ID, victim.ID))
			live = append(live[:idx], live[idx+1:]...)

			// second delete of the same comment fails and does not decrement
			require.ErrorIs(t, svc.DeleteComment(ctx, testAdmin, post.ID, victim.ID), model.ErrNotFound)
		}

		got, err := svc.GetPostByID(ctx, testAdmin, post.ID)
		require.NoError(t, err)
		comments, err := svc.ListComments(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, len(live))
		require.Equal(t, int64(len(comments)), got.CommentCount)
	}
}

func TestDeleteCommentPolicy(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post := mustCreatePost(t, svc, "policy", model.CategoryFinance, true)
	c, err := svc.AddComment(ctx, testAlice, post.ID, "  mine  ")
	require.NoError(t, err)
	require.Equal(t, "mine", c.Content)
	require.Equal(t, "Alice", c.AuthorName)

	require.ErrorIs(t, svc.DeleteComment(ctx, testBob, post.ID, c.ID), auth.ErrForbidden)
	require.ErrorIs(t, svc.DeleteComment(ctx, auth.Anonymous, post.ID, c.ID), auth.ErrUnauthorized)

	got, err := svc.GetPostByID(ctx, testAdmin, post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.CommentCount)

	require.NoError(t, svc.DeleteComment(ctx, testAlice, post.ID, c.ID))
	got, err = svc.GetPostByID(ctx, testAdmin, post.ID)
	require.NoError(t, err)
	require.Zero(t, got.CommentCount)
}

func TestAddCommentValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post := mustCreatePost(t, svc, "validation", model.CategoryFinance, true)

	_, err := svc.AddComment(ctx, auth.Anonymous, post.ID, "hi")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = svc.AddComment(ctx, testBob, post.ID, "   ")
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AddComment(ctx, testBob, "missing", "hi")
	require.ErrorIs(t, err, model.ErrNotFound)

	c, err := svc.AddComment(ctx, testBob, post.ID, "hi")
	require.NoError(t, err)
	require.Equal(t, "bob", c.AuthorName)
}

func TestListAllComments(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	a := mustCreatePost(t, svc, "post a", model.CategoryFinance, true)
	b := mustCreatePost(t, svc, "post b", model.CategoryEconomy, false)

	_, err := svc.AddComment(ctx, testAlice, a.ID, "first")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, testBob, b.ID, "second")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, testAlice, a.ID, "third")
	require.NoError(t, err)

	all, err := svc.ListAllComments(ctx, testAdmin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "third", all[0].Content)
	require.Equal(t, "second", all[1].Content)
	require.Equal(t, "post-b", all[1].PostSlug)
	require.Equal(t, "first", all[2].Content)

	_, err = svc.ListAllComments(ctx, testBob)
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestReconcile(t *testing.T) {
	t.Parallel()
	svc, store := newTestBlog(t, steppingClock())
	ctx := t.Context()

	a := mustCreatePost(t, svc, "drifted", model.CategoryFinance, true)
	b := mustCreatePost(t, svc, "healthy", model.CategoryFinance, true)
	for _, id := range []string{a.ID, a.ID, b.ID} {
		_, err := svc.AddComment(ctx, testAlice, id, "x")
		require.NoError(t, err)
	}

	// simulate a lost increment
	require.NoError(t, store.Update(ctx, "posts", a.ID, map[string]any{dao.FieldCommentCount: 7}))

	ret, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ret.Scanned)
	require.Equal(t, []*CountCorrection{{PostID: a.ID, Slug: a.Slug, From: 7, To: 2}}, ret.Corrections)

	got, err := svc.GetPostByID(ctx, testAdmin, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.CommentCount)

	ret, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, ret.Corrections)
}

func TestIncrementViewAndStats(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	a := mustCreatePost(t, svc, "viewed", model.CategoryFinance, true)
	mustCreatePost(t, svc, "draft", model.CategoryFinance, false)
	_, err := svc.AddComment(ctx, testAlice, a.ID, "x")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		svc.IncrementView(ctx, a.ID)
	}
	// failures are logged, never returned
	svc.IncrementView(ctx, "missing")
	svc.WaitBackground()

	stats, err := svc.GetAdminStats(ctx, testAdmin)
	require.NoError(t, err)
	require.Equal(t, &model.AdminStats{
		TotalPosts:     2,
		PublishedPosts: 1,
		DraftPosts:     1,
		TotalComments:  1,
		TotalViews:     5,
	}, stats)

	_, err = svc.GetAdminStats(ctx, auth.Anonymous)
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestImportComments(t *testing.T) {
	t.Parallel()
	svc, _ := newTestBlog(t, steppingClock())
	ctx := t.Context()

	post := mustCreatePost(t, svc, "Imported", model.CategoryFinance, true)
	old := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)

	n, err := svc.ImportComments(ctx, post.Slug, []ImportedComment{
		{AuthorID: "disqus:carol", AuthorName: "Carol", Content: "first!", CreatedAt: old},
		{Content: "  "},
		{Content: "no name", CreatedAt: old.Add(time.Hour)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "no name", comments[0].Content)
	require.Equal(t, anonymousAuthorName, comments[0].AuthorName)
	require.True(t, comments[1].CreatedAt.Equal(old))

	got, err := svc.GetPostByID(ctx, testAdmin, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.CommentCount)

	_, err = svc.ImportComments(ctx, "missing", nil)
	require.ErrorIs(t, err, model.ErrNotFound)
}
