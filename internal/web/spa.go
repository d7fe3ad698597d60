package web

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

const (
	frontendDistEnvKey = "WEB_FRONTEND_DIST_DIR"
	// hashedAssetsPrefix holds fingerprinted build output, safe to cache forever
	hashedAssetsPrefix = "assets/"
)

// spaBundle serves the built front end. Paths that are not files fall back
// to index.html so the client router can render them, its not-found view included.
type spaBundle struct {
	files  fs.FS
	static http.Handler
	index  []byte
	logger logSDK.Logger
}

// newFrontendSPAHandler returns nil when no bundle is found
func newFrontendSPAHandler(logger logSDK.Logger, configured string) http.Handler {
	dir := locateFrontendDist(logger, configured)
	if dir == "" {
		return nil
	}

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		logger.Warn("read frontend index", zap.Error(err), zap.String("dir", dir))
		return nil
	}

	files := os.DirFS(dir)
	return &spaBundle{
		files:  files,
		static: http.FileServer(http.FS(files)),
		index:  index,
		logger: logger,
	}
}

func (b *spaBundle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		b.serveIndex(w, r)
		return
	}
	if !fs.ValidPath(name) {
		b.logger.Warn("reject invalid frontend path", zap.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}

	if info, err := fs.Stat(b.files, name); err == nil && !info.IsDir() {
		if strings.HasPrefix(name, hashedAssetsPrefix) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		b.static.ServeHTTP(w, r)
		return
	}

	// a missing file is a 404, an extensionless path is a client route
	if path.Ext(name) != "" {
		b.logger.Debug("frontend asset not found", zap.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}

	b.serveIndex(w, r)
}

func (b *spaBundle) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(b.index); err != nil {
		b.logger.Warn("write frontend index", zap.Error(err))
	}
}

// locateFrontendDist picks the first existing directory among the configured
// path, $WEB_FRONTEND_DIST_DIR, and web/dist next to the binary or the working dir
func locateFrontendDist(logger logSDK.Logger, configured string) string {
	candidates := []string{configured, strings.TrimSpace(os.Getenv(frontendDistEnvKey))}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "web", "dist"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "web", "dist"))
	}

	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			logger.Info("frontend assets located", zap.String("dir", dir))
			return dir
		}
	}

	logger.Info("frontend assets not found, serving api only", zap.String("env", frontendDistEnvKey))
	return ""
}
