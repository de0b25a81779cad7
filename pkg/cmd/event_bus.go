package cmd

import (
	"fmt"
	"log/slog"

	"github.com/reporunner/reporunner/pkg/eventbus"
	"github.com/reporunner/reporunner/pkg/eventbus/kafka"
)

// NewEventBus creates an event bus instance based on the provider name.
// "gochannel" is in-process only and suitable for single-binary setups.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		bus, err := kafka.NewEventBus(logger)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka event bus: %w", err))
		}

		return bus
	case "gochannel", "":
		return eventbus.NewGoChannelEventBus(logger)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
