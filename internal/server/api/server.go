// Package api exposes the report core over HTTP. Handlers are thin: they
// translate requests into calls on the session manager, dataset service,
// edit gateway, audit trail, and assistant, and map the error taxonomy onto
// status codes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/assistant"
	"github.com/chipsfactory/prodreport/internal/server/audit"
	"github.com/chipsfactory/prodreport/internal/server/dataset"
	"github.com/chipsfactory/prodreport/internal/server/editor"
	"github.com/chipsfactory/prodreport/internal/server/models"
	"github.com/chipsfactory/prodreport/internal/server/sessions"
)

type Server struct {
	addr      string
	log       logging.Logger
	sessions  *sessions.Manager
	datasets  *dataset.Service
	gateway   *editor.Gateway
	trail     audit.Trail
	assistant *assistant.Service
}

func NewServer(
	addr string,
	log logging.Logger,
	sessionManager *sessions.Manager,
	datasetService *dataset.Service,
	gateway *editor.Gateway,
	trail audit.Trail,
	assistantService *assistant.Service,
) *Server {
	return &Server{
		addr:      addr,
		log:       log.With("component", "api"),
		sessions:  sessionManager,
		datasets:  datasetService,
		gateway:   gateway,
		trail:     trail,
		assistant: assistantService,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/login", s.handleLogin)

	authed := r.Group("/api", s.RequireAuth())
	{
		authed.POST("/logout", s.handleLogout)

		authed.GET("/dataset", s.RequireRole(models.RoleViewer), s.handleGetDataset)
		authed.GET("/report", s.RequireRole(models.RoleViewer), s.handleReport)

		authed.POST("/dataset/load", s.RequireRole(models.RoleAnalyst), s.handleLoadDataset)
		authed.POST("/assistant", s.RequireRole(models.RoleAnalyst), s.handleAssistant)

		authed.POST("/edit", s.RequireRole(models.RoleAdmin), s.handleEdit)
		authed.GET("/audit", s.RequireRole(models.RoleAdmin), s.handleAudit)
	}

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
