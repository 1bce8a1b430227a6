package webui

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// Bundle exposes a built single-page app for serving.
type Bundle struct {
	DistFS    fs.FS  // Root dist filesystem.
	IndexHTML []byte // Raw index HTML content.
}

// Load opens the built bundle in distDir. An empty distDir disables the UI and returns nil.
func Load(distDir string) (*Bundle, error) {
	distDir = strings.TrimSpace(distDir)
	if distDir == "" {
		return nil, nil
	}
	info, errStat := os.Stat(distDir)
	if errStat != nil {
		return nil, fmt.Errorf("webui: %w", errStat)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("webui: %s is not a directory", distDir)
	}
	distFS := os.DirFS(distDir)
	indexHTML, errReadFile := fs.ReadFile(distFS, "index.html")
	if errReadFile != nil {
		return nil, fmt.Errorf("webui: read index.html: %w", errReadFile)
	}
	return &Bundle{DistFS: distFS, IndexHTML: indexHTML}, nil
}

// Register serves static files and falls back to index.html for client-side routes.
// Paths for which isAPIRoute reports true are never answered with the app shell.
func (b *Bundle) Register(engine *gin.Engine, isAPIRoute func(string) bool) {
	if b == nil || engine == nil {
		return
	}
	if isAPIRoute == nil {
		isAPIRoute = func(string) bool { return false }
	}
	fileServer := http.FileServer(http.FS(b.DistFS))

	engine.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		requestPath := c.Request.URL.Path
		if isAPIRoute(requestPath) {
			c.Status(http.StatusNotFound)
			return
		}
		cleanedPath := path.Clean("/" + requestPath)
		filePath := strings.TrimPrefix(cleanedPath, "/")
		if filePath != "" {
			fileInfo, errStat := fs.Stat(b.DistFS, filePath)
			if errStat == nil && !fileInfo.IsDir() {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
			if errStat != nil && !errors.Is(errStat, fs.ErrNotExist) {
				c.Status(http.StatusNotFound)
				return
			}
			if requestPath == "/assets" || strings.HasPrefix(requestPath, "/assets/") || strings.Contains(path.Base(filePath), ".") {
				c.Status(http.StatusNotFound)
				return
			}
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", b.IndexHTML)
	})
}
