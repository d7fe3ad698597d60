// Package dto holds the admin request bodies of the résumé.
package dto

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Laisky/laisky-portfolio/internal/web/resume/model"
)

const (
	maxNameLength  = 200
	maxShortText   = 500
	maxLongText    = 20000
	maxListEntries = 100
)

// ProfileInput replaces the whole profile
type ProfileInput struct {
	Name         string              `json:"name"`
	Title        string              `json:"title"`
	Tagline      string              `json:"tagline"`
	Bio          string              `json:"bio"`
	PhotoURL     string              `json:"photoUrl"`
	Stats        []model.StatItem    `json:"stats"`
	Career       []model.CareerEntry `json:"career"`
	Competencies []model.Competency  `json:"competencies"`
	Education    []model.Education   `json:"education"`
	ChartData    model.ChartData     `json:"chartData"`
	Contact      model.ContactInfo   `json:"contact"`
}

// Validate checks the profile
func (r ProfileInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
		validation.Field(&r.Title, validation.RuneLength(0, maxNameLength)),
		validation.Field(&r.Tagline, validation.RuneLength(0, maxShortText)),
		validation.Field(&r.Bio, validation.RuneLength(0, maxLongText)),
		validation.Field(&r.PhotoURL, is.URL),
		validation.Field(&r.Stats, validation.Length(0, maxListEntries)),
		validation.Field(&r.Career, validation.Length(0, maxListEntries)),
		validation.Field(&r.Competencies, validation.Length(0, maxListEntries)),
		validation.Field(&r.Education, validation.Length(0, maxListEntries)),
		validation.Field(&r.ChartData, validation.By(validateChartData)),
		validation.Field(&r.Contact, validation.By(validateContact)),
	)
}

func validateChartData(value any) error {
	data, _ := value.(model.ChartData)
	return validation.ValidateStruct(&data,
		validation.Field(&data.Milestones, validation.Length(0, maxListEntries)),
		validation.Field(&data.IndustryExperience,
			validation.Length(0, maxListEntries),
			validation.Each(validation.By(func(v any) error {
				exp, _ := v.(model.IndustryExperience)
				return validation.ValidateStruct(&exp,
					validation.Field(&exp.Name, validation.Required),
					validation.Field(&exp.Years, validation.Min(0.0)),
				)
			})),
		),
		validation.Field(&data.CompetencyGroups, validation.Length(0, maxListEntries)),
	)
}

func validateContact(value any) error {
	contact, _ := value.(model.ContactInfo)
	return validation.ValidateStruct(&contact,
		validation.Field(&contact.Email, is.EmailFormat),
		validation.Field(&contact.LinkedIn, is.URL),
	)
}

// SkillInput replaces one skill, the slug comes from the path
type SkillInput struct {
	Label           string                `json:"label"`
	Icon            string                `json:"icon"`
	Summary         string                `json:"summary"`
	Description     string                `json:"description"`
	RelatedCareers  []model.RelatedCareer `json:"relatedCareers"`
	KeyAchievements []string              `json:"keyAchievements"`
	Tools           []string              `json:"tools"`
}

// Validate checks the skill
func (r SkillInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Label, validation.Required, validation.RuneLength(1, maxNameLength)),
		validation.Field(&r.Icon, validation.RuneLength(0, maxNameLength)),
		validation.Field(&r.Summary, validation.RuneLength(0, maxShortText)),
		validation.Field(&r.Description, validation.RuneLength(0, maxLongText)),
		validation.Field(&r.RelatedCareers, validation.Length(0, maxListEntries)),
		validation.Field(&r.KeyAchievements, validation.Length(0, maxListEntries)),
		validation.Field(&r.Tools, validation.Length(0, maxListEntries)),
	)
}
