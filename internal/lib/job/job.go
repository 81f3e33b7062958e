// Package job provides background job processing using Asynq.
//
// Two task types run here: sending invoice emails, and retrying response
// log entries the remote log store rejected. Producers enqueue through
// JobService.Client; the embedded asynq.Server consumes.
package job

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/shalom-ministry/internal/config"
	"github.com/deppfellow/shalom-ministry/internal/lib/email"
	"github.com/deppfellow/shalom-ministry/internal/logsink"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	// Set by InitHandlers before Start.
	mailer InvoiceMailer
	remote logsink.Destination
}

// NewJobService creates a JobService against the configured Redis.
//
// Queue weights give "critical" six of every ten workers; remote log
// retries go to "low" so they never starve invoice emails.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	return &JobService{
		Client: asynq.NewClient(redisOpt),
		server: server,
		logger: logger,
	}
}

// Start registers the task handlers and starts the workers. It returns
// once the workers are running.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskInvoiceEmail, j.handleInvoiceEmailTask)
	mux.HandleFunc(TaskRemoteLogRetry, j.handleRemoteLogRetryTask)

	j.logger.Info().Msg("starting background job server")

	return j.server.Start(mux)
}

// Stop stops the workers, waiting for running tasks, and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("closing job client")
	}
}

// InitHandlers wires what the task handlers need. remote may be nil when
// the remote log store is not connected.
func (j *JobService) InitHandlers(cfg *config.Config, remote logsink.Destination) {
	j.mailer = email.NewClient(cfg, j.logger)
	j.remote = remote
}

// asynqLogger routes asynq's own logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func newAsynqLogger(logger *zerolog.Logger) *asynqLogger {
	return &asynqLogger{log: logger.With().Str("component", "asynq").Logger()}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmtArgs(args)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmtArgs(args)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmtArgs(args)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmtArgs(args)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmtArgs(args)) }
