package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	blogModel "github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	uploadService "github.com/Laisky/laisky-portfolio/internal/web/upload/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/blob"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// cliPrincipal acts for the operator running the command
var cliPrincipal = &auth.Principal{UID: "cli", DisplayName: "cli", Role: auth.RoleAdmin}

type uploadConfig struct {
	File     string
	Title    string
	Slug     string
	Category string
	Tags     []string
	Excerpt  string
	Content  string
	Publish  bool
	Dry      bool
}

type uploadOutput struct {
	DocID       string `json:"docId"`
	URL         string `json:"url"`
	StoragePath string `json:"storagePath"`
}

var uploadCMD = &cobra.Command{
	Use:   "upload",
	Short: "upload a file and create the post recording it",
	Long: `upload a pdf or image to the blob store and create a post for it.

pdf files become the post attachment, images become the cover image.
prints one json line {"docId","url","storagePath"} on stdout.`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := uploadConfig{
			File:     gconfig.Shared.GetString("file"),
			Title:    gconfig.Shared.GetString("title"),
			Slug:     gconfig.Shared.GetString("slug"),
			Category: gconfig.Shared.GetString("category"),
			Excerpt:  gconfig.Shared.GetString("excerpt"),
			Content:  gconfig.Shared.GetString("content"),
			Publish:  gconfig.Shared.GetBool("publish"),
			Dry:      gconfig.Shared.GetBool("dry"),
		}
		cfg.Tags, _ = cmd.Flags().GetStringSlice("tags")

		out, err := runUpload(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
	},
}

func init() {
	rootCMD.AddCommand(uploadCMD)
	uploadCMD.Flags().String("file", "", "path of the pdf or image to upload")
	uploadCMD.Flags().String("title", "", "post title, defaults to the file name")
	uploadCMD.Flags().String("slug", "", "post slug, defaults to the slugified title")
	uploadCMD.Flags().String("category", string(blogModel.CategoryFinance), "post category")
	uploadCMD.Flags().StringSlice("tags", nil, "post tags, like `a,b`")
	uploadCMD.Flags().String("excerpt", "", "post excerpt")
	uploadCMD.Flags().String("content", "", "post markdown content")
	uploadCMD.Flags().Bool("publish", false, "publish the post right away")
	_ = uploadCMD.MarkFlagRequired("file")
}

// prepare fills the defaults derived from the file name
func (cfg *uploadConfig) prepare() (uploadService.Kind, error) {
	if strings.TrimSpace(cfg.File) == "" {
		return "", errors.New("--file is required")
	}

	base := filepath.Base(cfg.File)
	ext := strings.ToLower(filepath.Ext(base))
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if strings.TrimSpace(cfg.Slug) == "" {
		cfg.Slug = blogService.Slugify(cfg.Title)
	}
	if cfg.Slug == "" {
		return "", errors.Errorf("cannot derive a slug from title %q, pass --slug", cfg.Title)
	}

	if ext == ".pdf" {
		return uploadService.KindPostAttachment, nil
	}
	return uploadService.KindPostImage, nil
}

func runUpload(ctx context.Context, cfg uploadConfig) (*uploadOutput, error) {
	kind, err := cfg.prepare()
	if err != nil {
		return nil, err
	}
	logger := log.Logger.With(
		zap.String("file", cfg.File),
		zap.String("slug", cfg.Slug),
		zap.String("kind", string(kind)))

	fp, err := os.Open(cfg.File)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", cfg.File)
	}
	defer fp.Close() // nolint: errcheck

	size := int64(-1)
	if st, err := fp.Stat(); err == nil {
		size = st.Size()
	}
	f := uploadService.File{Name: filepath.Base(cfg.File), Size: size, Body: fp, Slug: cfg.Slug}

	if cfg.Dry {
		// validate against a throwaway store, nothing leaves the machine
		ret, err := uploadService.New(blob.NewMemory("")).Put(ctx, kind, f)
		if err != nil {
			return nil, err
		}
		logger.Info("dry run, skip upload and post creation",
			zap.String("storage_path", ret.StoragePath),
			zap.Int64("size", ret.Size))
		return &uploadOutput{StoragePath: ret.StoragePath}, nil
	}

	a, err := setupApp(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setup app")
	}
	defer a.Close(context.Background())

	return uploadAndCreatePost(ctx, a.upload, a.blog, kind, f, cfg)
}

// postCreator creates the post that refers to an upload
type postCreator interface {
	CheckNewPost(ctx context.Context, p *auth.Principal, in blogService.PostInput) error
	CreatePost(ctx context.Context, p *auth.Principal, in blogService.PostInput) (*blogModel.Post, error)
}

// uploadAndCreatePost checks the post before uploading, and removes the
// object again when the post still cannot be created
func uploadAndCreatePost(ctx context.Context,
	uploader *uploadService.Upload,
	blog postCreator,
	kind uploadService.Kind,
	f uploadService.File,
	cfg uploadConfig,
) (*uploadOutput, error) {
	in := blogService.PostInput{
		Slug:      cfg.Slug,
		Title:     cfg.Title,
		Excerpt:   cfg.Excerpt,
		Content:   cfg.Content,
		Category:  blogModel.Category(cfg.Category),
		Tags:      cfg.Tags,
		Published: cfg.Publish,
	}
	if err := blog.CheckNewPost(ctx, cliPrincipal, in); err != nil {
		return nil, errors.Wrap(err, "check post")
	}

	ret, err := uploader.Put(ctx, kind, f)
	if err != nil {
		return nil, errors.Wrap(err, "upload file")
	}

	if kind == uploadService.KindPostAttachment {
		in.AttachmentURL = ret.URL
		in.AttachmentName = ret.Name
	} else {
		in.CoverImageURL = ret.URL
	}

	post, err := blog.CreatePost(ctx, cliPrincipal, in)
	if err != nil {
		logger := log.Logger.With(zap.String("storage_path", ret.StoragePath))
		if rmErr := uploader.Remove(ctx, ret.StoragePath); rmErr != nil {
			logger.Error("remove orphan upload", zap.Error(rmErr))
		} else {
			logger.Info("removed orphan upload")
		}
		return nil, errors.Wrap(err, "create post")
	}

	log.Logger.Info("uploaded",
		zap.String("doc_id", post.ID),
		zap.String("url", ret.URL))
	return &uploadOutput{DocID: post.ID, URL: ret.URL, StoragePath: ret.StoragePath}, nil
}
