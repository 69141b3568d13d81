package ui

import (
	"fmt"
	"net/http"
	"strconv"

	apperrors "grouprank/internal/errors"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetGroup(c *gin.Context) {
	raw := c.Param("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		s.respondError(c, apperrors.NotFound(fmt.Sprintf("Invalid group_id %s or no more groups", raw)))
		return
	}

	entry, err := s.container.Store.GetByPresentationIndex(index)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.container.Resolver.Present(entry))
}

func (s *Server) handleGetNextGroup(c *gin.Context) {
	entry, err := s.container.Store.AdvanceAndGet()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.container.Resolver.Present(entry))
}

func (s *Server) handleGetGroupsCount(c *gin.Context) {
	c.JSON(http.StatusOK, s.container.Store.Count())
}

func (s *Server) handleResetProgress(c *gin.Context) {
	s.container.Store.ResetCursor()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"directory":    s.container.Store.Directory(),
		"total_groups": s.container.Store.Count().TotalGroups,
	})
}
