package service

import (
	"context"
	"sort"
	"sync"

	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-portfolio/library/log"
)

// CountCorrection one repaired commentCount
type CountCorrection struct {
	PostID string `json:"postId"`
	Slug   string `json:"slug"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
}

// ReconcileResult outcome of a reconciliation run
type ReconcileResult struct {
	Scanned     int                `json:"scanned"`
	Corrections []*CountCorrection `json:"corrections"`
}

// Reconcile recomputes every post's commentCount from its live comments
// and writes the corrections. Comments written while it runs may be
// counted on the next run instead.
func (s *Blog) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	posts, err := s.dao.ScanPosts(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result = &ReconcileResult{Scanned: len(posts), Corrections: []*CountCorrection{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, post := range posts {
		g.Go(func() error {
			comments, err := s.dao.ListComments(gctx, post.ID)
			if err != nil {
				return err
			}

			live := int64(len(comments))
			if live == post.CommentCount {
				return nil
			}
			if err = s.dao.SetCommentCount(gctx, post.ID, live); err != nil {
				return err
			}

			log.Logger.Info("correct comment count",
				zap.String("post", post.ID),
				zap.Int64("from", post.CommentCount),
				zap.Int64("to", live))

			mu.Lock()
			result.Corrections = append(result.Corrections, &CountCorrection{
				PostID: post.ID,
				Slug:   post.Slug,
				From:   post.CommentCount,
				To:     live,
			})
			mu.Unlock()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Corrections, func(i, j int) bool {
		return result.Corrections[i].PostID < result.Corrections[j].PostID
	})
	return result, nil
}
