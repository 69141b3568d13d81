package ui

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"grouprank/internal"
	"grouprank/internal/container"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

// Server represents the labeling HTTP API
type Server struct {
	router    *gin.Engine
	container *container.Container
	logger    *internal.Logger

	srvMu   sync.Mutex
	httpSrv *http.Server

	// picks shares one directory dialog between concurrent select_directory calls
	picks singleflight.Group
}

// NewServer creates a new web server instance over an initialized container
func NewServer(c *container.Container) *Server {
	s := &Server{
		router:    gin.New(),
		container: c,
		logger:    c.Logger.With("component", "http"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Groups
	s.router.GET("/get_group/:index", s.handleGetGroup)
	s.router.GET("/get_next_group", s.handleGetNextGroup)
	s.router.GET("/get_groups_count", s.handleGetGroupsCount)
	s.router.POST("/reset_progress", s.handleResetProgress)
	s.router.POST("/select_directory", s.handleSelectDirectory)
	s.router.GET("/serve_image", s.handleServeImage)

	// Identity
	s.router.POST("/set_user", s.handleSetUser)
	s.router.GET("/whoami", s.handleWhoAmI)
	s.router.POST("/logout_user", s.handleLogoutUser)

	// Results
	s.router.POST("/submit_group", s.handleSubmitGroup)
	s.router.POST("/submit_all", s.handleSubmitAll)
	s.router.GET("/export_results", s.handleExportResults)
	s.router.GET("/export_results_json", s.handleExportResultsJSON)
	s.router.GET("/export_results_xlsx", s.handleExportResultsXLSX)

	s.router.GET("/healthz", s.handleHealth)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.srvMu.Lock()
	s.httpSrv = srv
	s.srvMu.Unlock()

	s.logger.Info("Starting labeling server on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.httpSrv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
