// Package http exposes NoteService over a gin router. Every route is
// anonymous.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notsy/internal/logging"
	"github.com/dmitrijs2005/notsy/internal/server/config"
	"github.com/dmitrijs2005/notsy/internal/server/models"
	"github.com/dmitrijs2005/notsy/internal/server/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NoteService is the business API served over HTTP.
type NoteService interface {
	List(ctx context.Context, completed *bool) ([]*models.Note, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Note, error)
	Create(ctx context.Context, in *models.NoteInput) (*models.Note, error)
	Update(ctx context.Context, id uuid.UUID, in *models.NoteInput) (*models.Note, error)
	Complete(ctx context.Context, id uuid.UUID, completed bool) (*models.Note, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Note, error)
	AttachImage(ctx context.Context, id uuid.UUID, body io.Reader, contentType string) (*models.Note, error)
	DetachImage(ctx context.Context, id uuid.UUID) (*models.Note, error)
}

// ImageSource serves stored images back. Only the in-memory image store
// needs this; S3 URLs are fetched from S3 directly.
type ImageSource interface {
	Get(name string) (storage.Object, bool)
}

// Option customises a Server.
type Option func(*Server)

// WithPinger makes GET /ping report the result of fn.
func WithPinger(fn func(context.Context) error) Option {
	return func(s *Server) { s.ping = fn }
}

// WithImageSource mounts GET /images/:name backed by src.
func WithImageSource(src ImageSource) Option {
	return func(s *Server) { s.images = src }
}

type Server struct {
	address         string
	notes           NoteService
	logger          logging.Logger
	ping            func(context.Context) error
	images          ImageSource
	maxImageBytes   int64
	rateRPS         int
	rateBurst       int
	corsOrigins     string
	shutdownTimeout time.Duration
}

func NewHTTPServer(c *config.Config, l logging.Logger, ns NoteService, opts ...Option) *Server {
	s := &Server{
		address:         c.EndpointAddrHTTP,
		notes:           ns,
		logger:          l.With("module", "http_server"),
		maxImageBytes:   c.MaxImageBytes,
		rateRPS:         c.RateLimitRPS,
		rateBurst:       c.RateLimitBurst,
		corsOrigins:     c.CORSAllowedOrigins,
		shutdownTimeout: c.ShutdownTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(
		s.recovery(),
		requestID(),
		requestLogger(s.logger),
		rateLimit(s.rateRPS, s.rateBurst),
	)
	s.routes(r)
	return withCORS(r, s.corsOrigins)
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/ping", s.handlePing)

	r.GET("/notes", s.handleList(nil, "retrieving notes"))
	r.GET("/notes/completed", s.handleList(boolPtr(true), "retrieving completed notes"))
	r.GET("/notes/todo", s.handleList(boolPtr(false), "retrieving todo notes"))

	r.GET("/note/:id", s.handleGet)
	r.POST("/note/create", s.handleCreate)
	r.POST("/note/update/:id", s.handleUpdate)
	r.PUT("/note/complete/:id", s.handleComplete)
	r.POST("/note/:id/image", s.handleAttachImage)
	r.DELETE("/note/:id/image", s.handleDetachImage)
	r.DELETE("/note/delete/:id", s.handleDelete)

	if s.images != nil {
		r.GET("/images/:name", s.handleImage)
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func boolPtr(b bool) *bool { return &b }
