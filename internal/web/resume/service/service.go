// Package service implements the résumé: profile, skills and the home page.
package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/jinzhu/copier"

	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	"github.com/Laisky/laisky-portfolio/internal/web/resume/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/resume/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/resume/model"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/docstore"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// homeLatestPosts number of posts shown on the home page
const homeLatestPosts = 3

// Resume service
type Resume struct {
	dao  *dao.Resume
	blog *blogService.Blog
}

// New create résumé service
func New(d *dao.Resume, blog *blogService.Blog) *Resume {
	return &Resume{dao: d, blog: blog}
}

// GetProfile public profile, ErrNotFound before the first save
func (s *Resume) GetProfile(ctx context.Context) (*model.Profile, error) {
	return s.dao.GetProfile(ctx)
}

// UpdateProfile replaces the whole profile
func (s *Resume) UpdateProfile(ctx context.Context, p *auth.Principal, in *dto.ProfileInput) (*model.Profile, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, errors.Wrap(model.ErrValidation, err.Error())
	}

	profile := new(model.Profile)
	if err := copier.CopyWithOption(profile, in, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "copy profile")
	}

	data, err := docstore.ToMap(profile)
	if err != nil {
		return nil, err
	}
	data["updatedAt"] = docstore.ServerTimestamp

	if err = s.dao.SetProfile(ctx, data); err != nil {
		return nil, err
	}

	log.Logger.Info("update profile", zap.String("by", p.UID))
	return s.dao.GetProfile(ctx)
}

// GetSkill public skill page
func (s *Resume) GetSkill(ctx context.Context, slug string) (*model.SkillDetail, error) {
	return s.dao.GetSkill(ctx, slug)
}

// ListSkills every skill ordered by slug
func (s *Resume) ListSkills(ctx context.Context) ([]*model.SkillDetail, error) {
	return s.dao.ListSkills(ctx)
}

// SetSkill creates or replaces skills/{slug}
func (s *Resume) SetSkill(ctx context.Context, p *auth.Principal, slug string, in *dto.SkillInput) (*model.SkillDetail, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return nil, err
	}
	if slug == "" || blogService.Slugify(slug) != slug {
		return nil, errors.Wrapf(model.ErrValidation, "slug %q must be lower case letters, digits and single dashes", slug)
	}
	if err := in.Validate(); err != nil {
		return nil, errors.Wrap(model.ErrValidation, err.Error())
	}

	skill := &model.SkillDetail{Slug: slug}
	if err := copier.CopyWithOption(skill, in, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "copy skill")
	}

	data, err := docstore.ToMap(skill)
	if err != nil {
		return nil, err
	}
	if err = s.dao.SetSkill(ctx, slug, data); err != nil {
		return nil, err
	}

	return s.dao.GetSkill(ctx, slug)
}

// DeleteSkill removes a skill
func (s *Resume) DeleteSkill(ctx context.Context, p *auth.Principal, slug string) error {
	if err := auth.RequireAdmin(p); err != nil {
		return err
	}

	return s.dao.DeleteSkill(ctx, slug)
}

// Home profile plus the latest published posts.
// A missing profile is not an error.
func (s *Resume) Home(ctx context.Context) (*model.Home, error) {
	home := new(model.Home)

	profile, err := s.dao.GetProfile(ctx)
	switch {
	case docstore.IsNotFound(err):
	case err != nil:
		return nil, err
	default:
		home.Profile = profile
	}

	if home.LatestPosts, err = s.blog.LatestPosts(ctx, homeLatestPosts); err != nil {
		return nil, err
	}

	return home, nil
}
