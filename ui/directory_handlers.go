package ui

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "grouprank/internal/errors"

	"github.com/gin-gonic/gin"
)

const legacyImagePrefix = "/serve_image"

type selectDirectoryRequest struct {
	Directory string `json:"directory"`
}

type selection struct {
	directory string
	total     int
}

func (s *Server) handleSelectDirectory(c *gin.Context) {
	var req selectDirectoryRequest
	// The body is optional; without one the picker is asked.
	_ = c.ShouldBindJSON(&req)

	var (
		result selection
		err    error
	)
	if dir := strings.TrimSpace(req.Directory); dir != "" {
		result, err = s.loadDirectory(dir)
	} else {
		result, err = s.pickDirectory(c.Request.Context())
	}

	switch {
	case err != nil:
		s.logger.Error("[SelectDirectory] %v", err)
		c.JSON(apperrors.HTTPStatus(err), gin.H{"success": false, "error": apperrors.PublicMessage(err)})
	case result.directory == "":
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "No directory selected"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "directory": result.directory, "total_groups": result.total})
	}
}

// pickDirectory runs the picker once for all concurrent callers. Each caller
// stops waiting when its own request is cancelled.
func (s *Server) pickDirectory(ctx context.Context) (selection, error) {
	ch := s.picks.DoChan("pick", func() (interface{}, error) {
		dir, err := s.container.Picker.PickDirectory(context.Background())
		if err != nil {
			return selection{}, err
		}
		if dir == "" {
			return selection{}, nil
		}
		return s.loadDirectory(dir)
	})

	select {
	case <-ctx.Done():
		return selection{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return selection{}, res.Err
		}
		return res.Val.(selection), nil
	}
}

func (s *Server) loadDirectory(dir string) (selection, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return selection{}, apperrors.InvalidPayload(fmt.Sprintf("Directory not found: %s", dir))
	}
	total := s.container.Store.Initialize(dir, 0)
	return selection{directory: dir, total: total}, nil
}

func (s *Server) handleServeImage(c *gin.Context) {
	imagePath := c.Query("path")
	if imagePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No path provided"})
		return
	}
	if strings.HasPrefix(imagePath, legacyImagePrefix) {
		if _, rest, ok := strings.Cut(imagePath, "="); ok {
			imagePath = rest
		}
	}
	imagePath = filepath.ToSlash(filepath.Clean(imagePath))

	if s.container.Config.Labeling.RestrictImages {
		store := s.container.Store
		if !withinDirectory(store.Directory(), imagePath) && !store.HasImage(imagePath) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	}

	info, err := os.Stat(imagePath)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("File not found: %s", imagePath)})
		return
	}

	contentType := "image/jpeg"
	if strings.EqualFold(filepath.Ext(imagePath), ".webp") {
		contentType = "image/webp"
	}
	c.Header("Content-Type", contentType)
	c.File(imagePath)
}

// withinDirectory reports whether target resolves inside root.
func withinDirectory(root, target string) bool {
	if root == "" {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	if resolved, err := filepath.EvalSymlinks(absTarget); err == nil {
		absTarget = resolved
	}

	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
