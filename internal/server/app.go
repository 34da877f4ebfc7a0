// Package server initializes and runs the file-share server: database,
// migrations, object storage, KMS, services, and the HTTP endpoint, with
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/blob"
	"github.com/mayankramina/secure-file-share/internal/server/config"
	"github.com/mayankramina/secure-file-share/internal/server/httpapi"
	"github.com/mayankramina/secure-file-share/internal/server/kms"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/repomanager"
	"github.com/mayankramina/secure-file-share/internal/server/services"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	userService  *services.UserService
	fileService  *services.FileService
	shareService *services.ShareService
	linkService  *services.LinkService
	kmsService   *kms.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := blob.NewS3Store(ctx, blob.S3Config{
		Region:       c.S3Region,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	ks := kms.NewService(db, rm, logger)
	us := services.NewUserService(db, rm, c)
	ss := services.NewShareService(db, rm, ks, logger)
	fs := services.NewFileService(db, rm, blobs, ss, ks, logger)
	ls := services.NewLinkService(db, rm, c, logger)

	return &App{
		config:       c,
		logger:       logger,
		userService:  us,
		fileService:  fs,
		shareService: ss,
		linkService:  ls,
		kmsService:   ks,
	}, nil
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

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.userService, app.fileService, app.shareService, app.linkService,
		app.kmsService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
