package vsm

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
)

func DefaultPublisherFactory(url string) PublisherFactory {
	return func(logger watermill.LoggerAdapter) (message.Publisher, error) {
		logger = logger.With(watermill.LogFields{
			"url":       url,
			"component": "vsm.publisher",
		})

		pub, err := nats.NewPublisher(
			nats.PublisherConfig{
				URL: url,
				JetStream: nats.JetStreamConfig{
					Disabled: true,
				},
			},
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create nats publisher: %w", err)
		}

		return pub, nil
	}
}

func DefaultSubscriberFactory(url string) SubscriberFactory {
	return func(logger watermill.LoggerAdapter) (message.Subscriber, error) {
		logger = logger.With(watermill.LogFields{
			"url":       url,
			"component": "vsm.subscriber",
		})

		sub, err := nats.NewSubscriber(
			nats.SubscriberConfig{
				URL: url,
				JetStream: nats.JetStreamConfig{
					Disabled: true,
				},
			},
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create nats subscriber: %w", err)
		}

		return sub, nil
	}
}

func DefaultRouterFactory(logger watermill.LoggerAdapter) *message.Router {
	logger = logger.With(watermill.LogFields{
		"component": "vsm.router",
	})

	return message.NewDefaultRouter(logger)
}
