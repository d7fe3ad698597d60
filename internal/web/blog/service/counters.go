package service

import (
	"context"

	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// IncrementView bumps viewCount on a detached goroutine.
// It never blocks the caller, failures are only logged.
func (s *Blog) IncrementView(ctx context.Context, postID string) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ViewTimeout)
		defer cancel()

		if err := s.dao.IncrPostCounter(ctx, postID, dao.FieldViewCount, 1); err != nil {
			log.Logger.Warn("increase view count", zap.String("post", postID), zap.Error(err))
		}
	}()
}

// GetAdminStats sums every post, cost grows with the number of posts
func (s *Blog) GetAdminStats(ctx context.Context, p *auth.Principal) (*model.AdminStats, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}

	posts, err := s.dao.ScanPosts(ctx)
	if err != nil {
		return nil, err
	}

	stats := new(model.AdminStats)
	for _, post := range posts {
		stats.TotalPosts++
		if post.Published {
			stats.PublishedPosts++
		} else {
			stats.DraftPosts++
		}
		stats.TotalComments += post.CommentCount
		stats.TotalViews += post.ViewCount
	}

	return stats, nil
}
