// Package server initializes and runs the notsy application server.
// It selects the storage backends, wires identity, runs migrations,
// handles graceful shutdown and starts the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/notsy/internal/logging"
	"github.com/dmitrijs2005/notsy/internal/server/config"
	"github.com/dmitrijs2005/notsy/internal/server/identity"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notsy/internal/server/services"
	"github.com/dmitrijs2005/notsy/internal/server/storage"
	"github.com/gin-gonic/gin"

	hs "github.com/dmitrijs2005/notsy/internal/server/http"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *hs.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if !strings.EqualFold(c.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{config: c, logger: logger}

	var (
		rm     repomanager.RepositoryManager
		images storage.ImageStore
		opts   []hs.Option
	)

	switch c.StorageMode {
	case config.StorageModeMemory:
		mem := storage.NewMemoryStore(memoryImageBaseURL(c))
		rm = repomanager.NewMemoryRepositoryManager()
		images = mem
		opts = append(opts, hs.WithImageSource(mem))

	case config.StorageModePostgres:
		creds, err := identity.Credentials(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("identity init error: %w", err)
		}

		var ts identity.TokenSource
		if c.DatabaseIAMAuth {
			rts, err := identity.NewRDSTokenSource(c.DatabaseDSN, c.S3Region, creds)
			if err != nil {
				return nil, fmt.Errorf("db token init error: %w", err)
			}
			ts = rts
		}

		db, err := repomanager.OpenPostgres(c.DatabaseDSN, ts)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}

		s3, err := storage.NewS3Store(ctx, c, creds)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("image store init error: %w", err)
		}
		images = s3
		opts = append(opts, hs.WithPinger(db.PingContext))

	default:
		return nil, fmt.Errorf("unknown storage mode %q", c.StorageMode)
	}

	ns := services.NewNoteService(app.db, rm, images, logger, c.MaxImageBytes)
	app.httpServer = hs.NewHTTPServer(c, logger, ns, opts...)

	return app, nil
}

// memoryImageBaseURL points image URLs at this server's /images route
// unless a public URL is configured.
func memoryImageBaseURL(c *config.Config) string {
	if c.S3PublicURL != "" {
		return c.S3PublicURL
	}
	host, port, err := net.SplitHostPort(c.EndpointAddrHTTP)
	if err != nil {
		return "http://localhost/images"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/images"
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is canceled, a termination signal arrives or the
// HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage_mode", app.config.StorageMode)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
