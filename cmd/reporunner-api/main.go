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
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "reporunner-api",
		Usage:                 "Manage workflows and trigger executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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

			logger.InfoContext(ctx, "Initializing Reporunner API")

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

				tracer, err = otelhelper.NewTracer(ctx, "reporunner-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
				}
			}

			workerID := "api-" + uuid.New().String()[:8]
			sink := eventbus.NewBusSink(logger, eventBus)
			scheduler := engine.NewScheduler(logger, registry, store.ExecutionRepository(), sink, tracer, workerID)

			queue := engine.NewQueue(logger, command.Int("queue-workers"), engine.DefaultQueueBuffer)
			queue.Start(ctx)
			defer queue.Shutdown()

			manager := engine.NewManager(logger, store, scheduler, queue, nil)

			api := NewAPI(logger, store, registry, manager)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
