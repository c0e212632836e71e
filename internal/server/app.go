// Package server assembles the SparkDrive server from its configuration:
// metadata and object store backends, the upload event queue and its
// consumer, and the HTTP API. It handles graceful shutdown on signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/api"
	"github.com/dmitrijs2005/sparkdrive/internal/server/config"
	"github.com/dmitrijs2005/sparkdrive/internal/server/events"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/dmitrijs2005/sparkdrive/internal/server/notify"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sparkdrive/internal/server/services"
	"github.com/gin-gonic/gin"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

	newS3Store = func(ctx context.Context, cfg objectstore.S3Config) (objectstore.Store, error) {
		s, err := objectstore.NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	newB2Store = func(ctx context.Context, keyID, key, bucket string) (objectstore.Store, error) {
		s, err := objectstore.NewB2Store(ctx, keyID, key, bucket)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	queue    *events.Queue
	recorder *services.UploadRecorder
	handler  http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	meta, err := app.initMetadata(ctx)
	if err != nil {
		return nil, err
	}

	blobs, err := app.initObjectStore(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	app.queue, err = events.Open(events.Options{
		Dir:          c.QueueDir,
		InMemory:     c.QueueDir == "",
		PollInterval: c.QueuePollInterval,
		Logger:       logger,
	})
	if err != nil {
		app.close()
		return nil, err
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if c.MailgunDomain != "" && c.MailgunAPIKey != "" {
		notifier = notify.NewMailgunNotifier(c.MailgunDomain, c.MailgunAPIKey, c.MailgunSender)
	}

	m := metrics.New()
	app.recorder = services.NewUploadRecorder(meta, blobs, logger, m)

	gin.SetMode(gin.ReleaseMode)
	app.handler = api.NewRouter(api.Deps{
		Namespace: services.NewNamespaceService(meta, blobs, logger),
		Cascade:   services.NewCascadeEngine(meta, blobs, c.MaxDeleteDepth, logger, m),
		Uploads:   services.NewUploadCoordinator(meta, blobs, app.queue, logger, m),
		Shares: services.NewShareService(meta, blobs, notifier, services.ShareConfig{
			UITokenTTL:     c.UITokenTTL,
			EmailTokenTTL:  c.EmailTokenTTL,
			DownloadURLTTL: c.DownloadURLTTL,
			PublicBaseURL:  c.PublicBaseURL,
		}, logger, m),
		Meta:      meta,
		Metrics:   m,
		Logger:    logger,
		JWTSecret: []byte(c.SecretKey),
	})

	return app, nil
}

func (app *App) initMetadata(ctx context.Context) (metadata.Store, error) {
	if app.config.MetadataStore == config.MetadataStoreMemory {
		return metadata.NewMemoryStore(), nil
	}

	db, err := openDB(app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return metadata.NewPostgresStore(db, rm), nil
}

func (app *App) initObjectStore(ctx context.Context) (objectstore.Store, error) {
	c := app.config
	switch c.ObjectStore {
	case config.ObjectStoreMemory:
		return objectstore.NewMemoryStore(), nil
	case config.ObjectStoreB2:
		return newB2Store(ctx, c.B2KeyID, c.B2Key, c.B2Bucket)
	default:
		return newS3Store(ctx, objectstore.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
}

func (app *App) close() error {
	var errs []error
	if app.queue != nil {
		errs = append(errs, app.queue.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

// Handler returns the HTTP handler of the API.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API and consumes upload events until ctx is cancelled or
// a signal arrives, then releases the stores.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.queue.Run(ctx, app.recorder.Handle); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := api.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.handler)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
