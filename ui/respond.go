package ui

import (
	"net/http"

	apperrors "grouprank/internal/errors"
	"grouprank/ui/middleware"

	"github.com/gin-gonic/gin"
)

// respondError writes {error: msg} with the status mapped from the error code.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": apperrors.PublicMessage(err)})
}

// sessionUser returns the user bound to the request's session, if any.
func (s *Server) sessionUser(c *gin.Context) (string, bool) {
	sid, ok := middleware.SessionID(c)
	if !ok {
		return "", false
	}
	user, ok := s.container.Sessions.User(sid)
	if !ok {
		return "", false
	}
	return user.String(), true
}
