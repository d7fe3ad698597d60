package cmd

import (
	"context"
	"encoding/xml"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	blogModel "github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// DisqusXML root of a Disqus export
type DisqusXML struct {
	XMLName xml.Name       `xml:"disqus"`
	Threads []DisqusThread `xml:"thread"`
	Posts   []DisqusPost   `xml:"post"`
}

// DisqusThread a discussion thread, one per blog post
type DisqusThread struct {
	DsqID     string `xml:"id,attr"`
	Link      string `xml:"link"`
	Title     string `xml:"title"`
	IsDeleted bool   `xml:"isDeleted"`
}

// DisqusPost a comment
type DisqusPost struct {
	DsqID     string          `xml:"id,attr"`
	Message   string          `xml:"message"`
	CreatedAt string          `xml:"createdAt"`
	IsDeleted bool            `xml:"isDeleted"`
	IsSpam    bool            `xml:"isSpam"`
	Author    DisqusAuthor    `xml:"author"`
	Thread    DisqusThreadRef `xml:"thread"`
}

// DisqusAuthor author of a comment
type DisqusAuthor struct {
	Name        string `xml:"name"`
	IsAnonymous bool   `xml:"isAnonymous"`
	Username    string `xml:"username"`
}

// DisqusThreadRef points at a thread by its Disqus id
type DisqusThreadRef struct {
	DsqID string `xml:"id,attr"`
}

type importConfig struct {
	DisqusFile string
	DryRun     bool
}

type importStats struct {
	Imported       int
	SkippedDeleted int
	SkippedSpam    int
	SkippedNoPost  int
}

var importCMD = &cobra.Command{
	Use:   "import",
	Short: "import data from external sources",
	Args:  gcmd.NoExtraArgs,
}

var importCommentsCMD = &cobra.Command{
	Use:   "comments",
	Short: "import comments from a Disqus export",
	Long: `import comments from a Disqus XML export into the blog.

threads are matched to posts by the slug in their link,
like https://laisky.com/blog/{slug} or https://blog.laisky.com/p/{slug}.
deleted and spam comments are skipped. replies are imported flat.

  portfolio import comments -c settings.yml --disqus_file=disqus.xml`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImportComments(cmd.Context(), importConfig{
			DisqusFile: gconfig.Shared.GetString("disqus_file"),
			DryRun:     gconfig.Shared.GetBool("dry"),
		})
	},
}

func init() {
	rootCMD.AddCommand(importCMD)
	importCMD.AddCommand(importCommentsCMD)

	importCommentsCMD.Flags().String("disqus_file", "", "path to the Disqus XML export file")
	if err := importCommentsCMD.MarkFlagRequired("disqus_file"); err != nil {
		log.Logger.Panic("mark flag required", zap.Error(err))
	}
}

func runImportComments(ctx context.Context, cfg importConfig) error {
	logger := log.Logger.Named("import-comments")
	logger.Info("start importing Disqus comments",
		zap.String("disqus_file", cfg.DisqusFile),
		zap.Bool("dry_run", cfg.DryRun))

	data, err := parseDisqusXML(cfg.DisqusFile)
	if err != nil {
		return errors.Wrap(err, "parse Disqus XML")
	}

	bySlug, stats := groupDisqusComments(data)
	logger.Info("parsed Disqus XML",
		zap.Int("threads", len(data.Threads)),
		zap.Int("comments", len(data.Posts)),
		zap.Int("posts", len(bySlug)))

	if cfg.DryRun {
		for slug, comments := range bySlug {
			logger.Info("dry run, would import",
				zap.String("slug", slug),
				zap.Int("comments", len(comments)))
		}
		return nil
	}

	a, err := setupApp(ctx)
	if err != nil {
		return errors.Wrap(err, "setup app")
	}
	defer a.Close(context.Background())

	if err = importDisqusComments(ctx, a.blog, bySlug, stats); err != nil {
		return err
	}

	logger.Info("import completed",
		zap.Int("imported", stats.Imported),
		zap.Int("skipped_deleted", stats.SkippedDeleted),
		zap.Int("skipped_spam", stats.SkippedSpam),
		zap.Int("skipped_no_post", stats.SkippedNoPost))
	return nil
}

func importDisqusComments(ctx context.Context,
	blog *blogService.Blog,
	bySlug map[string][]blogService.ImportedComment,
	stats *importStats,
) error {
	slugs := make([]string, 0, len(bySlug))
	for slug := range bySlug {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		n, err := blog.ImportComments(ctx, slug, bySlug[slug])
		stats.Imported += n
		if errors.Is(err, blogModel.ErrNotFound) {
			log.Logger.Debug("no post for slug", zap.String("slug", slug))
			stats.SkippedNoPost += len(bySlug[slug])
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "import comments of %q", slug)
		}
	}

	return nil
}

func parseDisqusXML(filePath string) (*DisqusXML, error) {
	fp, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open file %s", filePath)
	}
	defer fp.Close() // nolint: errcheck

	var data DisqusXML
	if err := xml.NewDecoder(fp).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "unmarshal XML")
	}

	return &data, nil
}

// groupDisqusComments groups the live comments by the slug of their thread
func groupDisqusComments(data *DisqusXML) (map[string][]blogService.ImportedComment, *importStats) {
	threadSlug := make(map[string]string, len(data.Threads))
	for _, thread := range data.Threads {
		if thread.IsDeleted {
			continue
		}
		if slug := extractSlugFromLink(thread.Link); slug != "" {
			threadSlug[thread.DsqID] = slug
		}
	}

	stats := new(importStats)
	bySlug := make(map[string][]blogService.ImportedComment)
	for _, post := range data.Posts {
		switch {
		case post.IsDeleted:
			stats.SkippedDeleted++
			continue
		case post.IsSpam:
			stats.SkippedSpam++
			continue
		}

		slug, ok := threadSlug[post.Thread.DsqID]
		if !ok {
			stats.SkippedNoPost++
			continue
		}

		c := blogService.ImportedComment{
			AuthorName: strings.TrimSpace(post.Author.Name),
			Content:    cleanHTMLContent(post.Message),
		}
		if post.Author.Username != "" && !post.Author.IsAnonymous {
			c.AuthorID = "disqus:" + post.Author.Username
		}
		if t, err := parseDisqusTime(post.CreatedAt); err != nil {
			log.Logger.Warn("unparsable comment time, use the post's",
				zap.String("disqus_id", post.DsqID), zap.Error(err))
		} else {
			c.CreatedAt = t
		}

		bySlug[slug] = append(bySlug[slug], c)
	}

	return bySlug, stats
}

// extractSlugFromLink returns the slug of links like `/blog/{slug}` or `/p/{slug}`
func extractSlugFromLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if (part == "blog" || part == "p") && i+1 < len(parts) && parts[i+1] != "" {
			slug, err := url.PathUnescape(parts[i+1])
			if err != nil {
				return ""
			}
			return slug
		}
	}

	return ""
}

// parseDisqusTime parses timestamps like `2015-03-25T14:10:41Z`
func parseDisqusTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04:05", s); err != nil {
			return time.Time{}, errors.Wrapf(err, "parse time %s", s)
		}
	}

	return t.UTC(), nil
}

// cleanHTMLContent turns the paragraph and line break markup of Disqus into newlines
func cleanHTMLContent(content string) string {
	content = strings.TrimSpace(content)
	content = strings.NewReplacer(
		"<p>", "",
		"</p>", "\n",
		"<br>", "\n",
		"<br/>", "\n",
		"<br />", "\n",
	).Replace(content)

	return strings.TrimSpace(content)
}
