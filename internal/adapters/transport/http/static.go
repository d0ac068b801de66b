package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/usiug6/auth-service/internal/adapters/transport/http/dto"
)

const indexFile = "index.html"

// spa serves files under dir and falls back to index.html for unknown paths,
// so client-side routes resolve. Unknown /api paths stay JSON 404s.
func spa(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") || dir == "" ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
			return
		}

		// Clean against "/" so ".." cannot climb out of dir.
		rel := filepath.FromSlash(path.Clean("/" + p))
		if file := filepath.Join(dir, rel); isFile(file) {
			c.File(file)
			return
		}

		index := filepath.Join(dir, indexFile)
		if !isFile(index) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
			return
		}
		c.File(index)
	}
}

func isFile(name string) bool {
	st, err := os.Stat(name)
	return err == nil && !st.IsDir()
}
