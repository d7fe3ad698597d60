package service

// -------------------------------------
// comments live under posts/{id}/comments, every write
// is followed by a compensating commentCount increment
// -------------------------------------

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/docstore"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// ListComments comments of a post, newest first
func (s *Blog) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	return s.dao.ListComments(ctx, postID)
}

// AddComment stores a comment by p and bumps the post's commentCount.
// The comment stays durable when the increment fails, reconciliation
// repairs the counter.
func (s *Blog) AddComment(ctx context.Context, p *auth.Principal, postID, content string) (*model.Comment, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	content, err := sanitizeComment(content)
	if err != nil {
		return nil, err
	}

	if _, err = s.dao.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	id, err := s.dao.CreateComment(ctx, postID, map[string]any{
		"content":        content,
		"authorId":       p.UID,
		"authorName":     commentAuthorName(p),
		"authorPhotoUrl": p.PhotoURL,
		"createdAt":      docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, err
	}

	logger := log.Logger.With(zap.String("post", postID), zap.String("comment", id))
	if err = s.dao.IncrPostCounter(ctx, postID, dao.FieldCommentCount, 1); err != nil {
		logger.Error("increase comment count", zap.Error(err))
	}

	logger.Debug("add comment", zap.String("author", p.UID))
	return s.dao.GetComment(ctx, postID, id)
}

// DeleteComment removes a comment if p is its author or an admin,
// then decrements the post's commentCount.
// Only the caller whose delete succeeds decrements.
func (s *Blog) DeleteComment(ctx context.Context, p *auth.Principal, postID, commentID string) error {
	if err := auth.RequireAuthenticated(p); err != nil {
		return err
	}

	comment, err := s.dao.GetComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if err = auth.CanDeleteComment(p, comment.AuthorID); err != nil {
		return err
	}

	if err = s.dao.DeleteComment(ctx, postID, commentID); err != nil {
		return err
	}

	logger := log.Logger.With(zap.String("post", postID), zap.String("comment", commentID))
	if err = s.dao.IncrPostCounter(ctx, postID, dao.FieldCommentCount, -1); err != nil {
		logger.Error("decrease comment count", zap.Error(err))
	}

	logger.Info("delete comment", zap.String("by", p.UID))
	return nil
}

// ListAllComments every comment across posts for moderation, newest first
func (s *Blog) ListAllComments(ctx context.Context, p *auth.Principal) ([]*model.ModeratedComment, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	posts, err := s.dao.ScanPosts(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		all []*model.ModeratedComment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, post := range posts {
		g.Go(func() error {
			comments, err := s.dao.ListComments(gctx, post.ID)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for _, c := range comments {
				all = append(all, &model.ModeratedComment{
					Comment:   c,
					PostID:    post.ID,
					PostSlug:  post.Slug,
					PostTitle: post.Title,
				})
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	return all, nil
}

func commentAuthorName(p *auth.Principal) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		return local
	}

	return anonymousAuthorName
}
