// Package dao stores the profile singleton and the skills.
package dao

import (
	"context"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/internal/web/resume/model"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

const (
	colProfile = "profile"
	colSkills  = "skills"

	profileDocID = "main"
)

// Resume dao
type Resume struct {
	store docstore.Store
}

// New create dao
func New(store docstore.Store) *Resume {
	return &Resume{store: store}
}

// GetProfile load the singleton profile
func (d *Resume) GetProfile(ctx context.Context) (*model.Profile, error) {
	doc, err := d.store.Get(ctx, colProfile, profileDocID)
	if err != nil {
		return nil, errors.Wrap(err, "get profile")
	}

	profile := new(model.Profile)
	if err = doc.DataTo(profile); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}

	return profile, nil
}

// SetProfile replaces the singleton profile
func (d *Resume) SetProfile(ctx context.Context, data map[string]any) error {
	return errors.Wrap(d.store.Set(ctx, colProfile, profileDocID, data), "set profile")
}

// GetSkill load skill by slug
func (d *Resume) GetSkill(ctx context.Context, slug string) (*model.SkillDetail, error) {
	doc, err := d.store.Get(ctx, colSkills, slug)
	if err != nil {
		return nil, errors.Wrapf(err, "get skill %q", slug)
	}

	return decodeSkill(doc)
}

// ListSkills every skill ordered by slug
func (d *Resume) ListSkills(ctx context.Context) ([]*model.SkillDetail, error) {
	docs, err := d.store.List(ctx, colSkills, docstore.Query{
		Orders: []docstore.Order{{Field: docstore.DocumentID, Dir: docstore.Asc}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "list skills")
	}

	skills := make([]*model.SkillDetail, 0, len(docs))
	for _, doc := range docs {
		skill, err := decodeSkill(doc)
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}

	return skills, nil
}

// SetSkill replaces skills/{slug}
func (d *Resume) SetSkill(ctx context.Context, slug string, data map[string]any) error {
	return errors.Wrapf(d.store.Set(ctx, colSkills, slug, data), "set skill %q", slug)
}

// DeleteSkill removes skills/{slug}
func (d *Resume) DeleteSkill(ctx context.Context, slug string) error {
	return errors.Wrapf(d.store.Delete(ctx, colSkills, slug), "delete skill %q", slug)
}

func decodeSkill(doc docstore.Document) (*model.SkillDetail, error) {
	skill := new(model.SkillDetail)
	if err := doc.DataTo(skill); err != nil {
		return nil, errors.Wrapf(err, "decode skill %q", doc.ID())
	}
	// the document id is authoritative
	skill.Slug = doc.ID()
	return skill, nil
}
