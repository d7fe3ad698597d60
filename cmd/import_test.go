package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	blogDao "github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	blogModel "github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

const disqusExport = `<?xml version="1.0" encoding="utf-8"?>
<disqus xmlns="http://disqus.com">
  <thread dsq:id="t1" xmlns:dsq="http://disqus.com/disqus-internals">
    <link>https://blog.laisky.com/p/rate-hikes/</link>
    <title>Rate hikes</title>
    <isDeleted>false</isDeleted>
  </thread>
  <thread dsq:id="t2" xmlns:dsq="http://disqus.com/disqus-internals">
    <link>https://laisky.com/blog/missing-post</link>
    <isDeleted>false</isDeleted>
  </thread>
  <thread dsq:id="t3" xmlns:dsq="http://disqus.com/disqus-internals">
    <link>https://laisky.com/about</link>
    <isDeleted>false</isDeleted>
  </thread>
  <post dsq:id="c1" xmlns:dsq="http://disqus.com/disqus-internals">
    <message><![CDATA[<p>great read</p>]]></message>
    <createdAt>2015-03-25T14:10:41Z</createdAt>
    <isDeleted>false</isDeleted>
    <isSpam>false</isSpam>
    <author><name>Carol</name><isAnonymous>false</isAnonymous><username>carol</username></author>
    <thread dsq:id="t1"/>
  </post>
  <post dsq:id="c2" xmlns:dsq="http://disqus.com/disqus-internals">
    <message>buy now</message>
    <createdAt>2015-03-25T15:00:00Z</createdAt>
    <isDeleted>false</isDeleted>
    <isSpam>true</isSpam>
    <thread dsq:id="t1"/>
  </post>
  <post dsq:id="c3" xmlns:dsq="http://disqus.com/disqus-internals">
    <message>gone</message>
    <isDeleted>true</isDeleted>
    <thread dsq:id="t1"/>
  </post>
  <post dsq:id="c4" xmlns:dsq="http://disqus.com/disqus-internals">
    <message>orphan</message>
    <createdAt>2015-03-26T00:00:00</createdAt>
    <isDeleted>false</isDeleted>
    <author><name>Guest</name><isAnonymous>true</isAnonymous></author>
    <thread dsq:id="t2"/>
  </post>
  <post dsq:id="c5" xmlns:dsq="http://disqus.com/disqus-internals">
    <message>about page</message>
    <isDeleted>false</isDeleted>
    <thread dsq:id="t3"/>
  </post>
</disqus>`

func writeExport(t *testing.T) string {
	t.Helper()

	fpath := filepath.Join(t.TempDir(), "disqus.xml")
	require.NoError(t, os.WriteFile(fpath, []byte(disqusExport), 0o600))
	return fpath
}

func TestExtractSlugFromLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link string
		want string
	}{
		{"https://laisky.com/blog/rate-hikes", "rate-hikes"},
		{"https://laisky.com/blog/rate-hikes/?utm=x", "rate-hikes"},
		{"http://blog.laisky.com/p/%E5%88%A9%E7%8E%87", "利率"},
		{"https://laisky.com/blog/", ""},
		{"https://laisky.com/about", ""},
		{"::not a url", ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, extractSlugFromLink(tt.link), tt.link)
	}
}

func TestGroupDisqusComments(t *testing.T) {
	t.Parallel()

	data, err := parseDisqusXML(writeExport(t))
	require.NoError(t, err)
	require.Len(t, data.Threads, 3)
	require.Len(t, data.Posts, 5)

	bySlug, stats := groupDisqusComments(data)
	require.Equal(t, 1, stats.SkippedSpam)
	require.Equal(t, 1, stats.SkippedDeleted)
	require.Equal(t, 1, stats.SkippedNoPost)

	require.Len(t, bySlug["rate-hikes"], 1)
	c := bySlug["rate-hikes"][0]
	require.Equal(t, "disqus:carol", c.AuthorID)
	require.Equal(t, "Carol", c.AuthorName)
	require.Equal(t, "great read", c.Content)
	require.True(t, c.CreatedAt.Equal(time.Date(2015, 3, 25, 14, 10, 41, 0, time.UTC)))

	require.Len(t, bySlug["missing-post"], 1)
	require.Empty(t, bySlug["missing-post"][0].AuthorID)
}

func TestImportDisqusComments(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	blog := blogService.New(blogDao.New(docstore.NewMemory()), blogService.Config{})
	post, err := blog.CreatePost(ctx, cliPrincipal, blogService.PostInput{
		Slug:      "rate-hikes",
		Title:     "Rate hikes",
		Content:   "body",
		Category:  blogModel.CategoryEconomy,
		Published: true,
	})
	require.NoError(t, err)

	data, err := parseDisqusXML(writeExport(t))
	require.NoError(t, err)
	bySlug, stats := groupDisqusComments(data)

	require.NoError(t, importDisqusComments(ctx, blog, bySlug, stats))
	require.Equal(t, 1, stats.Imported)
	require.Equal(t, 2, stats.SkippedNoPost)

	comments, err := blog.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "great read", comments[0].Content)

	got, err := blog.GetPostByID(ctx, cliPrincipal, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.CommentCount)
}

func TestCleanHTMLContent(t *testing.T) {
	t.Parallel()

	require.Equal(t, "one\ntwo\nthree", cleanHTMLContent(" <p>one</p><p>two<br />three</p> "))
}
