// Package web serves the single-page front end and a small JSON API over the service.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Service is the subset of *service.Service used by the handlers.
type Service interface {
	FetchAndStore(ctx context.Context, criteria jobs.SearchCriteria) (*service.FetchResult, error)
	Matches(ctx context.Context, resumeName string, statuses []jobs.Status) (*service.Results, error)
	UpdateStatus(ctx context.Context, id, raw string) (jobs.Status, error)
	Job(ctx context.Context, id string) (*jobs.JobListing, error)
	Resumes() ([]string, error)
	UploadResume(name string, r io.Reader) (string, error)
	StatusCounts(ctx context.Context) (map[jobs.Status]int, error)
	Filters() []filtering.Status
}

type Server struct {
	svc    Service
	logger *zap.Logger
	engine *gin.Engine
}

func New(svc Service, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	engine := gin.New()
	engine.Use(RequestLogger(logger), Recovery(logger))
	engine.SetHTMLTemplate(tmpl)
	engine.MaxMultipartMemory = 2 << 20

	s := &Server{svc: svc, logger: logger, engine: engine}
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", s.index)
	r.POST("/fetch", s.fetchForm)
	r.POST("/jobs/:id/status", s.statusForm)
	r.POST("/resumes", s.uploadForm)

	api := r.Group("/api")
	api.GET("/resumes", s.listResumes)
	api.GET("/jobs", s.listJobs)
	api.GET("/jobs/:id", s.getJob)
	api.PUT("/jobs/:id/status", s.updateStatus)
	api.POST("/fetch", s.fetch)
	api.GET("/filters", s.listFilters)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("web server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
