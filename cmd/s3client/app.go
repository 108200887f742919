// File: cmd/s3client/app.go
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"

	"s3client/internal/config"
	"s3client/internal/logger"
	"s3client/internal/provider/factory"
	"s3client/internal/service"
	"s3client/internal/transfer"
	"s3client/internal/ui/prompt"
	"s3client/pkg/formatter"
)

const debugEnv = config.EnvPrefix + "_DEBUG"

// appContainer holds all the shared dependencies for one invocation
type appContainer struct {
	Config           *config.Config
	ConfigManager    *config.ConfigManager
	ProviderFactory  *factory.Factory
	StorageService   *service.StorageService
	ObjectService    *service.ObjectService
	StorageFormatter *formatter.StorageFormatter
	Prompter         prompt.Prompter
	Logger           *slog.Logger
	Out              io.Writer
}

type appOptions struct {
	configPath string
	output     string
	debug      bool
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

type appContextKey struct{}

// Creates and initializes a new application container
func newApp(opts appOptions) (*appContainer, error) {
	debug := opts.debug
	if v, err := strconv.ParseBool(os.Getenv(debugEnv)); err == nil && v {
		debug = true
	}
	log := logger.NewLogger(opts.stderr, debug)

	output, err := formatter.ParseOutputFormat(opts.output)
	if err != nil {
		return nil, err
	}

	var cfgManager *config.ConfigManager
	if opts.configPath != "" {
		cfgManager, err = config.NewConfigManagerWithPath(opts.configPath)
	} else {
		cfgManager, err = config.NewConfigManager()
	}
	if err != nil {
		return nil, err
	}

	cfg, err := cfgManager.LoadConfig()
	if err != nil {
		return nil, err
	}
	log.Debug("Configuration loaded", "path", cfgManager.ConfigFilePath())

	providerFactory := factory.NewFactory(cfg, log)

	app := &appContainer{
		Config:           cfg,
		ConfigManager:    cfgManager,
		ProviderFactory:  providerFactory,
		StorageService:   service.NewStorageService(providerFactory, log),
		StorageFormatter: formatter.NewStorageFormatter(output),
		Prompter:         prompt.NewLinePrompter(opts.stdin, opts.stderr),
		Logger:           log,
		Out:              opts.stdout,
	}
	app.ObjectService = app.objectService(cfg.Transfer.Concurrency)
	return app, nil
}

// Builds an object service whose engine runs the given number of workers
func (a *appContainer) objectService(concurrency int) *service.ObjectService {
	engine := transfer.NewEngine(
		transfer.WithConcurrency(concurrency),
		transfer.WithLogger(a.Logger),
	)
	return service.NewObjectService(a.ProviderFactory, engine, transfer.NewLogSink(a.Logger), a.Logger)
}

func withApp(ctx context.Context, app *appContainer) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

func appFromContext(ctx context.Context) (*appContainer, error) {
	app, ok := ctx.Value(appContextKey{}).(*appContainer)
	if !ok || app == nil {
		return nil, errors.New("application not initialized")
	}
	return app, nil
}
