package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deppfellow/shalom-ministry/internal/config"
	"github.com/deppfellow/shalom-ministry/internal/database"
	"github.com/deppfellow/shalom-ministry/internal/handler"
	"github.com/deppfellow/shalom-ministry/internal/logger"
	"github.com/deppfellow/shalom-ministry/internal/repository"
	"github.com/deppfellow/shalom-ministry/internal/router"
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/service"
)

const (
	migrationTimeout = time.Minute
	shutdownTimeout  = 30 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	appLogger := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if err := run(cfg, &appLogger, loggerService); err != nil {
		appLogger.Error().Err(err).Msg("server stopped with error")
		loggerService.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) error {
	migrateCtx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	err := database.Migrate(migrateCtx, log, cfg)
	cancel()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, log, loggerService)
	if err != nil {
		return err
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	if err != nil {
		return err
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}

	log.Info().Msg("server exited")
	return runErr
}
