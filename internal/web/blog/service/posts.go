package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/docstore"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// ListAllPosts admin listing, drafts included
func (s *Blog) ListAllPosts(ctx context.Context, p *auth.Principal, req PageRequest) (*Page, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	return s.listPosts(ctx, req, false)
}

// LatestPosts returns the n newest published posts
func (s *Blog) LatestPosts(ctx context.Context, n int) ([]*model.Post, error) {
	page, err := s.ListPublishedPosts(ctx, PageRequest{Size: n})
	if err != nil {
		return nil, err
	}

	return page.Posts, nil
}

// ResolvePost finds a post by slug, drafts are only visible to admins
func (s *Blog) ResolvePost(ctx context.Context, p *auth.Principal, slug string) (*model.Post, error) {
	post, err := s.dao.FindPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if !post.Published && !p.IsAdmin() {
		return nil, errors.Wrapf(model.ErrNotFound, "post slug %q", slug)
	}

	return post, nil
}

// GetPostBySlug loads a post and renders its content
func (s *Blog) GetPostBySlug(ctx context.Context, p *auth.Principal, slug string) (*model.PostView, error) {
	post, err := s.ResolvePost(ctx, p, slug)
	if err != nil {
		return nil, err
	}

	cnt, menu := RenderMarkdown(post.Content)
	return &model.PostView{Post: post, HTML: cnt, Menu: menu}, nil
}

// GetPostByID admin read, drafts included
func (s *Blog) GetPostByID(ctx context.Context, p *auth.Principal, id string) (*model.Post, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	return s.dao.GetPost(ctx, id)
}

// CreatePost validates and stores a new post.
// Counters start at zero, publishedAt is stamped when created published.
func (s *Blog) CreatePost(ctx context.Context, p *auth.Principal, in PostInput) (*model.Post, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	if err := s.checkNewPost(ctx, &in); err != nil {
		return nil, err
	}

	data := s.postFields(in)
	data[dao.FieldViewCount] = int64(0)
	data[dao.FieldCommentCount] = int64(0)
	data["createdAt"] = docstore.ServerTimestamp
	data["updatedAt"] = docstore.ServerTimestamp
	if in.Published {
		data["publishedAt"] = docstore.ServerTimestamp
	}

	id, err := s.dao.CreatePost(ctx, data)
	if err != nil {
		return nil, err
	}

	log.Logger.Info("create post",
		zap.String("id", id),
		zap.String("slug", in.Slug),
		zap.Bool("published", in.Published))
	return s.dao.GetPost(ctx, id)
}

// CheckNewPost reports the error CreatePost would return for in right now,
// without storing anything
func (s *Blog) CheckNewPost(ctx context.Context, p *auth.Principal, in PostInput) error {
	if err := auth.RequireAdmin(p); err != nil {
		return err
	}

	return s.checkNewPost(ctx, &in)
}

func (s *Blog) checkNewPost(ctx context.Context, in *PostInput) error {
	in.normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	return s.ensureSlugFree(ctx, in.Slug, "")
}

// UpdatePost overwrites the editable fields of a post.
// An empty slug keeps the current one.
func (s *Blog) UpdatePost(ctx context.Context, p *auth.Principal, id string, in PostInput) (*model.Post, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	cur, err := s.dao.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Slug == "" {
		in.Slug = cur.Slug
	}
	if in.AuthorName == "" {
		in.AuthorName = cur.AuthorName
	}

	in.normalize()
	if err = in.Validate(); err != nil {
		return nil, err
	}
	if in.Slug != cur.Slug {
		if err = s.ensureSlugFree(ctx, in.Slug, id); err != nil {
			return nil, err
		}
	}

	data := s.postFields(in)
	data["updatedAt"] = docstore.ServerTimestamp
	if in.Published && cur.PublishedAt == nil {
		data["publishedAt"] = docstore.ServerTimestamp
	}

	if err = s.dao.UpdatePost(ctx, id, data); err != nil {
		return nil, err
	}

	return s.dao.GetPost(ctx, id)
}

// TogglePublish flips the published flag.
// publishedAt is only stamped on the first publication.
func (s *Blog) TogglePublish(ctx context.Context, p *auth.Principal, id string) (*model.Post, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	cur, err := s.dao.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	published := !cur.Published
	data := map[string]any{
		"published": published,
		"updatedAt": docstore.ServerTimestamp,
	}
	if published && cur.PublishedAt == nil {
		data["publishedAt"] = docstore.ServerTimestamp
	}

	if err = s.dao.UpdatePost(ctx, id, data); err != nil {
		return nil, err
	}

	log.Logger.Info("toggle post publication",
		zap.String("id", id), zap.Bool("published", published))
	return s.dao.GetPost(ctx, id)
}

// DeletePost removes the comments first, then the post
func (s *Blog) DeletePost(ctx context.Context, p *auth.Principal, id string) error {
	if err := auth.RequireAdmin(p); err != nil {
		return err
	}

	if _, err := s.dao.GetPost(ctx, id); err != nil {
		return err
	}

	comments, err := s.dao.ListComments(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if err = s.dao.DeleteComment(ctx, id, c.ID); err != nil && !docstore.IsNotFound(err) {
			return err
		}
	}

	if err = s.dao.DeletePost(ctx, id); err != nil {
		return err
	}

	log.Logger.Info("delete post", zap.String("id", id), zap.Int("comments", len(comments)))
	return nil
}

func (s *Blog) postFields(in PostInput) map[string]any {
	author := in.AuthorName
	if author == "" {
		author = s.cfg.AuthorName
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	return map[string]any{
		"slug":           in.Slug,
		"title":          in.Title,
		"excerpt":        in.Excerpt,
		"content":        in.Content,
		"category":       string(in.Category),
		"tags":           tags,
		"coverImageUrl":  in.CoverImageURL,
		"attachmentUrl":  in.AttachmentURL,
		"attachmentName": in.AttachmentName,
		"published":      in.Published,
		"authorName":     author,
	}
}

// ensureSlugFree fails with ErrSlugTaken when another post owns slug
func (s *Blog) ensureSlugFree(ctx context.Context, slug, exceptID string) error {
	post, err := s.dao.FindPostBySlug(ctx, slug)
	switch {
	case docstore.IsNotFound(err):
		return nil
	case err != nil:
		return err
	case post.ID == exceptID:
		return nil
	default:
		return errors.Wrapf(model.ErrSlugTaken, "%q", slug)
	}
}
