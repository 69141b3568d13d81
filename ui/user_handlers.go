package ui

import (
	"net/http"

	"grouprank/domain/core"
	"grouprank/ui/middleware"

	"github.com/gin-gonic/gin"
)

type setUserRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleSetUser(c *gin.Context) {
	var req setUserRequest
	// A body that is not JSON is treated like a missing user_id.
	_ = c.ShouldBindJSON(&req)

	userID, err := core.ParseUserID(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	sid, _ := middleware.SessionID(c)
	s.container.Sessions.SetUser(sid, userID)
	s.logger.Info("[Session] user set to %s", userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": userID.String()})
}

func (s *Server) handleWhoAmI(c *gin.Context) {
	user, ok := s.sessionUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user})
}

func (s *Server) handleLogoutUser(c *gin.Context) {
	if sid, ok := middleware.SessionID(c); ok {
		s.container.Sessions.Clear(sid)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
