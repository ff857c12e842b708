// Package server initializes and runs the report server. It selects the
// storage backends, wires the services together, handles graceful shutdown,
// and starts the HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/api"
	"github.com/chipsfactory/prodreport/internal/server/assistant"
	"github.com/chipsfactory/prodreport/internal/server/audit"
	"github.com/chipsfactory/prodreport/internal/server/config"
	"github.com/chipsfactory/prodreport/internal/server/credstore"
	"github.com/chipsfactory/prodreport/internal/server/dataset"
	"github.com/chipsfactory/prodreport/internal/server/editor"
	"github.com/chipsfactory/prodreport/internal/server/sessions"
	"github.com/chipsfactory/prodreport/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *api.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	var creds credstore.Repository
	var trail audit.Trail

	switch c.Storage {
	case config.StoragePostgres:
		db, err := storage.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		creds = credstore.NewPostgresRepository(db)
		trail = audit.NewPostgresTrail(db)
	case config.StorageFile:
		repo, err := credstore.NewJSONFileRepository(c.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("credential store init error: %w", err)
		}
		creds = repo
		trail = audit.NewCSVTrail(c.AuditFile)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage)
	}

	fetcher := dataset.MultiFetcher{Local: dataset.LocalFetcher{}}
	if c.S3RootUser != "" {
		fetcher.S3 = dataset.NewS3Fetcher(dataset.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	loader := dataset.NewLoader(fetcher, c.DateColumn)

	manager := sessions.NewManager(creds, []byte(c.SecretKey), c.TokenValidityDuration, logger)
	datasetService := dataset.NewService(loader, creds, logger)
	gateway := editor.NewGateway(trail, logger)

	var assistantService *assistant.Service
	if c.OpenAIAPIKey != "" {
		assistantService = assistant.NewService(assistant.Config{
			APIKey:  c.OpenAIAPIKey,
			BaseURL: c.OpenAIBaseURL,
			Model:   c.OpenAIModel,
		}, logger)
	}

	server := api.NewServer(c.EndpointAddr, logger, manager, datasetService, gateway, trail, assistantService)

	return &App{config: c, logger: logger, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
