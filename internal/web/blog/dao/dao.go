// Package dao contains all the data access object used by the blog.
package dao

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

const (
	colPosts    = "posts"
	colComments = "comments"

	// FieldViewCount post view counter
	FieldViewCount = "viewCount"
	// FieldCommentCount post comment counter
	FieldCommentCount = "commentCount"
)

// Blog dao type
type Blog struct {
	store docstore.Store
}

// New create new dao
func New(store docstore.Store) *Blog {
	return &Blog{store: store}
}

// CommentsCol returns the comments subcollection of a post
func CommentsCol(postID string) string {
	return docstore.Path(colPosts, postID, colComments)
}

// PostsQuery selects posts in feed order, newest first with id tie-break
type PostsQuery struct {
	// Category empty means every category
	Category      model.Category
	PublishedOnly bool
	Limit         int
	// AfterCreatedAt and AfterID position the page right after a known post
	AfterCreatedAt time.Time
	AfterID        string
}

// feedOrders is the total order every post listing uses
var feedOrders = []docstore.Order{
	{Field: "createdAt", Dir: docstore.Desc},
	{Field: docstore.DocumentID, Dir: docstore.Asc},
}

// ListPosts runs a feed query
func (d *Blog) ListPosts(ctx context.Context, q PostsQuery) ([]*model.Post, error) {
	query := docstore.Query{
		Orders: feedOrders,
		Limit:  q.Limit,
	}
	if q.PublishedOnly {
		query.Filters = append(query.Filters, docstore.Filter{Field: "published", Value: true})
	}
	if q.Category != "" {
		query.Filters = append(query.Filters, docstore.Filter{Field: "category", Value: string(q.Category)})
	}
	if q.AfterID != "" {
		query.StartAfter = []any{q.AfterCreatedAt, q.AfterID}
	}

	docs, err := d.store.List(ctx, colPosts, query)
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}

	return decodePosts(docs)
}

// ScanPosts loads every post, drafts included
func (d *Blog) ScanPosts(ctx context.Context) ([]*model.Post, error) {
	return d.ListPosts(ctx, PostsQuery{})
}

// GetPost load post by id
func (d *Blog) GetPost(ctx context.Context, id string) (*model.Post, error) {
	doc, err := d.store.Get(ctx, colPosts, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %q", id)
	}

	return decodePost(doc)
}

// FindPostBySlug load post by slug
func (d *Blog) FindPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	docs, err := d.store.List(ctx, colPosts, docstore.Query{
		Filters: []docstore.Filter{{Field: "slug", Value: slug}},
		Limit:   1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "find post by slug %q", slug)
	}
	if len(docs) == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "post slug %q", slug)
	}

	return decodePost(docs[0])
}

// CreatePost insert post document
func (d *Blog) CreatePost(ctx context.Context, data map[string]any) (string, error) {
	id, err := d.store.Create(ctx, colPosts, data)
	if err != nil {
		return "", errors.Wrap(err, "create post")
	}

	return id, nil
}

// UpdatePost merge fields into post
func (d *Blog) UpdatePost(ctx context.Context, id string, data map[string]any) error {
	return errors.Wrapf(d.store.Update(ctx, colPosts, id, data), "update post %q", id)
}

// DeletePost delete post document, comments are not touched
func (d *Blog) DeletePost(ctx context.Context, id string) error {
	return errors.Wrapf(d.store.Delete(ctx, colPosts, id), "delete post %q", id)
}

// IncrPostCounter atomically adjusts a post counter
func (d *Blog) IncrPostCounter(ctx context.Context, postID, field string, delta int64) error {
	return errors.Wrapf(d.store.Increment(ctx, colPosts, postID, field, delta),
		"increment %s of post %q", field, postID)
}

// ListComments newest first
func (d *Blog) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	docs, err := d.store.List(ctx, CommentsCol(postID), docstore.Query{Orders: feedOrders})
	if err != nil {
		return nil, errors.Wrapf(err, "list comments of post %q", postID)
	}

	comments := make([]*model.Comment, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeComment(doc)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, nil
}

// GetComment load one comment
func (d *Blog) GetComment(ctx context.Context, postID, commentID string) (*model.Comment, error) {
	doc, err := d.store.Get(ctx, CommentsCol(postID), commentID)
	if err != nil {
		return nil, errors.Wrapf(err, "get comment %q", commentID)
	}

	return decodeComment(doc)
}

// CreateComment insert comment under post
func (d *Blog) CreateComment(ctx context.Context, postID string, data map[string]any) (string, error) {
	id, err := d.store.Create(ctx, CommentsCol(postID), data)
	if err != nil {
		return "", errors.Wrapf(err, "create comment on post %q", postID)
	}

	return id, nil
}

// DeleteComment delete comment, ErrNotFound when already gone
func (d *Blog) DeleteComment(ctx context.Context, postID, commentID string) error {
	return errors.Wrapf(d.store.Delete(ctx, CommentsCol(postID), commentID),
		"delete comment %q", commentID)
}

// SetCommentCount overwrites the counter, used by reconciliation only
func (d *Blog) SetCommentCount(ctx context.Context, postID string, n int64) error {
	return d.UpdatePost(ctx, postID, map[string]any{FieldCommentCount: n})
}

func decodePosts(docs []docstore.Document) ([]*model.Post, error) {
	posts := make([]*model.Post, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePost(doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, nil
}

func decodePost(doc docstore.Document) (*model.Post, error) {
	p := new(model.Post)
	if err := doc.DataTo(p); err != nil {
		return nil, errors.Wrapf(err, "decode post %q", doc.ID())
	}
	p.ID = doc.ID()
	return p, nil
}

func decodeComment(doc docstore.Document) (*model.Comment, error) {
	c := new(model.Comment)
	if err := doc.DataTo(c); err != nil {
		return nil, errors.Wrapf(err, "decode comment %q", doc.ID())
	}
	c.ID = doc.ID()
	return c, nil
}
