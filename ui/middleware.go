package ui

import (
	"time"

	"grouprank/ui/middleware"

	"github.com/gin-gonic/gin"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	cfg := s.container.Config.Session
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(middleware.EnsureSession(cfg.CookieName, cfg.TTL))
}

// requestLogger logs one line per request at debug level, and at warn level
// for server errors.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		if status >= 500 {
			s.logger.Warn("[HTTP] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
			return
		}
		s.logger.Debug("[HTTP] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}
