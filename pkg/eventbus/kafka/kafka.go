// Package kafka provides an Apache Kafka backed event bus.
package kafka

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	watermillkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"

	"github.com/reporunner/reporunner/pkg/eventbus"
)

const defaultConsumerGroup = "cg-reporunner-event-bus"

// NewEventBus builds a Kafka event bus from KAFKA_BROKERS (comma separated)
// and KAFKA_GROUP_ID environment variables.
func NewEventBus(logger *slog.Logger) (eventbus.EventBus, error) {
	brokers := splitBrokers(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		return nil, errors.New("no Kafka brokers configured")
	}

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = defaultConsumerGroup
	}

	wmLogger := watermill.NewSlogLogger(logger)

	publisher, err := watermillkafka.NewPublisher(watermillkafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: watermillkafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, err
	}

	saramaConfig := watermillkafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := watermillkafka.NewSubscriber(watermillkafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           watermillkafka.DefaultMarshaler{},
		ConsumerGroup:         groupID,
		OverwriteSaramaConfig: saramaConfig,
	}, wmLogger)
	if err != nil {
		if cerr := publisher.Close(); cerr != nil {
			logger.Error("Failed to close Kafka publisher", "error", cerr)
		}

		return nil, err
	}

	return eventbus.NewWatermillEventBus(publisher, subscriber), nil
}

func splitBrokers(raw string) []string {
	var brokers []string

	for _, broker := range strings.Split(raw, ",") {
		broker = strings.TrimSpace(broker)
		if broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return brokers
}
