package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
)

const (
	// maxPostSlugLength caps the length of post slugs.
	maxPostSlugLength = 200
	// maxPostTitleLength caps the length of post titles.
	maxPostTitleLength = 200
	// maxPostExcerptLength caps the length of post excerpts.
	maxPostExcerptLength = 1000
	// maxPostTagLength caps the length of post tags.
	maxPostTagLength = 50
	// maxPostTags caps the number of tags on one post.
	maxPostTags = 20
	// maxCommentContentLength caps the length of comment content.
	maxCommentContentLength = 10000
)

var categoryValues = func() []any {
	vs := make([]any, 0, len(model.Categories))
	for _, c := range model.Categories {
		vs = append(vs, c)
	}
	return vs
}()

// PostInput is the editable part of a post
type PostInput struct {
	// Slug empty means derive from Title
	Slug           string         `json:"slug"`
	Title          string         `json:"title"`
	Excerpt        string         `json:"excerpt"`
	Content        string         `json:"content"`
	Category       model.Category `json:"category"`
	Tags           []string       `json:"tags"`
	CoverImageURL  string         `json:"coverImageUrl"`
	AttachmentURL  string         `json:"attachmentUrl"`
	AttachmentName string         `json:"attachmentName"`
	Published      bool           `json:"published"`
	AuthorName     string         `json:"authorName"`
}

// normalize trims fields, de-duplicates tags and fills the slug
func (in *PostInput) normalize() {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Category = model.Category(strings.ToLower(strings.TrimSpace(string(in.Category))))
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
	in.AttachmentURL = strings.TrimSpace(in.AttachmentURL)
	in.AttachmentName = strings.TrimSpace(in.AttachmentName)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.Tags = normalizeTags(in.Tags)

	if in.Slug == "" && in.Title != "" {
		if in.Slug = Slugify(in.Title); in.Slug == "" {
			in.Slug = gutils.UUID7()
		}
	}
}

// Validate checks a normalized input
func (in *PostInput) Validate() error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Title,
			validation.Required,
			validation.RuneLength(1, maxPostTitleLength),
		),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Category,
			validation.Required,
			validation.In(categoryValues...).Error("must be finance or economy"),
		),
		validation.Field(&in.Slug,
			validation.Required,
			validation.RuneLength(1, maxPostSlugLength),
			validation.By(slugRule),
		),
		validation.Field(&in.Excerpt, validation.RuneLength(0, maxPostExcerptLength)),
		validation.Field(&in.Tags,
			validation.Length(0, maxPostTags),
			validation.Each(validation.RuneLength(1, maxPostTagLength)),
		),
		validation.Field(&in.CoverImageURL, is.URL),
		validation.Field(&in.AttachmentURL, is.URL),
	)
	if err != nil {
		return errors.Wrap(model.ErrValidation, err.Error())
	}

	return nil
}

func slugRule(value any) error {
	slug, _ := value.(string)
	if slug != "" && Slugify(slug) != slug {
		return errors.New("must be lower case letters, digits and single dashes")
	}

	return nil
}

// normalizeTags trims tags, drops empty ones and keeps the first of
// case-insensitive duplicates, order preserved
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// Slugify lower-cases title, keeps letters and digits of any script and
// joins the remaining runs with single dashes
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}

		pendingDash = true
	}

	return b.String()
}

// sanitizeComment trims content and enforces its length
func sanitizeComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return "", errors.Wrap(model.ErrValidation, "content: cannot be blank")
	case strings.ContainsRune(content, '\x00'):
		return "", errors.Wrap(model.ErrValidation, "content: contains invalid null byte")
	case utf8.RuneCountInString(content) > maxCommentContentLength:
		return "", errors.Wrapf(model.ErrValidation, "content: exceeds max length %d", maxCommentContentLength)
	}

	return content, nil
}
