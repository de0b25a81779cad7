package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/reporunner/reporunner/pkg/cmd"
	"github.com/reporunner/reporunner/pkg/engine"
	"github.com/reporunner/reporunner/pkg/eventbus"
	"github.com/reporunner/reporunner/pkg/log"
	"github.com/reporunner/reporunner/pkg/otelhelper"
	"github.com/reporunner/reporunner/pkg/protocol"
	"github.com/reporunner/reporunner/pkg/triggers/queue"
	"github.com/reporunner/reporunner/pkg/triggers/schedule"
)

func main() {
	command := &cli.Command{
		Name:                  "reporunner-worker",
		EnableShellCompletion: true,
		Usage:                 "Start a worker to execute workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the queue trigger source (disabled if empty)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:    "schedule-triggers",
				Usage:   "Run the cron schedule trigger source in this worker",
				Value:   true,
				Sources: cli.EnvVars("SCHEDULE_TRIGGERS"),
			},
			&cli.IntFlag{
				Name:    "queue-workers",
				Usage:   "Concurrent executions handled by this process",
				Value:   engine.DefaultQueueWorkers,
				Sources: cli.EnvVars("QUEUE_WORKERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("reporunner-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Reporunner Worker")

			registry := cmd.NewRegistry(logger)

			store := cmd.NewPersistence(ctx, command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer

			if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
				var err error

				tracer, err = otelhelper.NewTracer(ctx, "reporunner-worker")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
				}
			}

			sink := eventbus.NewBusSink(logger, eventBus)
			scheduler := engine.NewScheduler(logger, registry, store.ExecutionRepository(), sink, tracer, workerID)

			executionQueue := engine.NewQueue(logger, command.Int("queue-workers"), engine.DefaultQueueBuffer)
			executionQueue.Start(ctx)
			defer executionQueue.Shutdown()

			manager := engine.NewManager(logger, store, scheduler, executionQueue, nil)

			var sources []protocol.TriggerSource

			if command.Bool("schedule-triggers") {
				sources = append(sources, schedule.NewSource(logger, store.WorkflowRepository()))
			}

			if redisURL := command.String("redis-url"); redisURL != "" {
				queueSource, err := queue.NewSource(logger, redisURL, queue.DefaultQueueKey)
				if err != nil {
					return err
				}

				sources = append(sources, queueSource)
			}

			worker := NewWorker(workerID, logger, manager, eventBus, sources)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker stopped with error", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
