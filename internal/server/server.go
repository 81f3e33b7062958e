// Package server defines the Server struct that composes the app's main
// dependencies and owns their lifecycle.
//
// It owns:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the invoice database pool
//   - the optional Redis client and background job service (asynq)
//   - the response log sink and its destinations
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/shalom-ministry/internal/config"
	"github.com/deppfellow/shalom-ministry/internal/database"
	"github.com/deppfellow/shalom-ministry/internal/lib/job"
	loggerPkg "github.com/deppfellow/shalom-ministry/internal/logger"
	"github.com/deppfellow/shalom-ministry/internal/logsink"
)

// Server is the application container that holds shared resources.
// It is not the HTTP server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	DB *database.Database

	// Redis and Job are nil when no Redis address is configured.
	Redis *redis.Client
	Job   *job.JobService

	// ResponseLog receives every rejected request body. It is built once
	// here and shared by every route.
	ResponseLog *logsink.Sink

	// LogStore is the remote destination of ResponseLog, nil when the
	// store could not be reached at startup.
	LogStore *logsink.MongoDestination

	logFile    *logsink.FileDestination
	httpServer *http.Server
}

// RedisPingTimeout bounds the startup Redis check.
const RedisPingTimeout = 5 * time.Second

// New constructs a Server and initializes core dependencies.
//
// A failing database is fatal. A failing Redis or log store is not: the
// app runs without background jobs, or with local-only response logs.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
	}

	if cfg.Redis.Address != "" {
		s.Redis = newRedisClient(cfg, logger, loggerService)
		s.Job = job.NewJobService(logger, cfg)
	} else {
		logger.Warn().Msg("no redis address configured, background jobs disabled")
	}

	if err := s.setupResponseLog(); err != nil {
		return nil, s.abort(err)
	}

	if s.Job != nil {
		var remote logsink.Destination
		if s.LogStore != nil {
			remote = s.LogStore
		}
		s.Job.InitHandlers(cfg, remote)
		if err := s.Job.Start(); err != nil {
			return nil, s.abort(fmt.Errorf("failed to start job server: %w", err))
		}
	}

	return s, nil
}

// abort releases everything New opened before it failed with cause and
// returns cause. Cleanup failures are logged, not returned. The job server
// is never running here, so only its client is closed.
func (s *Server) abort(cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.LogStore.WriteTimeout+time.Second)
	defer cancel()

	errs := s.closeDependencies(ctx)
	if s.Job != nil {
		if err := s.Job.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close job client: %w", err))
		}
	}
	for _, err := range errs {
		s.Logger.Warn().Err(err).Msg("cleanup after failed startup")
	}
	return cause
}

func newRedisClient(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService.GetApplication() != nil {
		client.AddHook(nrredis.NewHook(client.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
	defer cancel()

	// Connections are lazy, so a failed ping only means "not yet".
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to Redis, continuing")
	}
	return client
}

// setupResponseLog opens the response log destinations and builds the sink.
func (s *Server) setupResponseLog() error {
	cfg := s.Config

	target, err := logsink.ResolveTarget(cfg.Primary.Env, cfg.LogStore, os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to resolve log store target: %w", err)
	}

	file, err := logsink.OpenFileDestination(cfg.LogStore.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open response log file: %w", err)
	}
	s.logFile = file

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LogStore.WriteTimeout)
	defer cancel()

	store, err := logsink.ConnectMongo(ctx, target, cfg.LogStore.Database, cfg.LogStore.Collection)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("log store unreachable, response logs stay local")
	} else {
		s.LogStore = store
		s.Logger.Info().
			Str("database", cfg.LogStore.Database).
			Str("collection", cfg.LogStore.Collection).
			Msg("connected to the log store")
	}

	opts := logsink.Options{
		Console:       logsink.NewConsoleDestination(os.Stdout),
		File:          file,
		RemoteTimeout: cfg.LogStore.WriteTimeout,
		Logger:        s.Logger,
		Events:        s.LoggerService,
	}
	if s.LogStore != nil {
		opts.Remote = s.LogStore
	}
	if s.Job != nil {
		opts.Retry = s.Job
	}

	s.ResponseLog = logsink.New(opts)
	return nil
}

// SetupHTTPServer configures the internal net/http server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, drains in-flight response log writes
// and closes every dependency. It keeps going after a failure and returns
// all errors joined.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.ResponseLog != nil {
		if err := s.ResponseLog.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain response log: %w", err))
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	errs = append(errs, s.closeDependencies(ctx)...)

	return errors.Join(errs...)
}

// closeDependencies closes the log store, the response log file, Redis and
// the database, in that order, skipping the ones that were never opened.
func (s *Server) closeDependencies(ctx context.Context) []error {
	var errs []error

	if s.LogStore != nil {
		if err := s.LogStore.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log store: %w", err))
		}
	}

	if s.logFile != nil {
		if err := s.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close response log file: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	return errs
}
