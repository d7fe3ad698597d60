package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// ImportedComment a comment carried over from another comment system
type ImportedComment struct {
	AuthorID   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// ImportComments appends comments to the post with slug, keeping their
// original timestamps. Comments that fail validation are skipped.
// commentCount grows by the number of comments written, even when a later
// write fails.
func (s *Blog) ImportComments(ctx context.Context, slug string, comments []ImportedComment) (imported int, err error) {
	post, err := s.dao.FindPostBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}

	logger := log.Logger.Named("import_comments").With(zap.String("post", post.ID))
	defer func() {
		if imported == 0 {
			return
		}
		if incrErr := s.dao.IncrPostCounter(ctx, post.ID, dao.FieldCommentCount, int64(imported)); incrErr != nil {
			logger.Error("increase comment count", zap.Error(incrErr), zap.Int("n", imported))
		}
	}()

	for _, c := range comments {
		content, verr := sanitizeComment(c.Content)
		if verr != nil {
			logger.Debug("skip invalid comment", zap.Error(verr))
			continue
		}

		name := c.AuthorName
		if name == "" {
			name = anonymousAuthorName
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = post.CreatedAt
		}

		if _, err = s.dao.CreateComment(ctx, post.ID, map[string]any{
			"content":        content,
			"authorId":       c.AuthorID,
			"authorName":     name,
			"authorPhotoUrl": "",
			"createdAt":      createdAt.UTC(),
		}); err != nil {
			return imported, errors.Wrapf(err, "import comment #%d", imported)
		}
		imported++
	}

	logger.Info("comments imported", zap.Int("n", imported), zap.Int("skipped", len(comments)-imported))
	return imported, nil
}
