package vsm

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const DefaultNatsURL = "nats://localhost:4222"

type ConnectOptions struct {
	watermillLogger watermill.LoggerAdapter
	pubFactory      PublisherFactory
	subFactory      SubscriberFactory
	routerFactory   RouterFactory
}

type ConnectOption func(*ConnectOptions)

type (
	PublisherFactory  = func(watermill.LoggerAdapter) (message.Publisher, error)
	SubscriberFactory = func(watermill.LoggerAdapter) (message.Subscriber, error)
	RouterFactory     = func(watermill.LoggerAdapter) *message.Router
)

func WithWatermillLogger(logger watermill.LoggerAdapter) ConnectOption {
	return func(o *ConnectOptions) {
		o.watermillLogger = logger
	}
}

func WithPublisherFactory(pf PublisherFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.pubFactory = pf
	}
}

func WithPublisher(pub message.Publisher) ConnectOption {
	return func(o *ConnectOptions) {
		o.pubFactory = func(_ watermill.LoggerAdapter) (message.Publisher, error) {
			return pub, nil
		}
	}
}

func WithSubscriberFactory(sf SubscriberFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.subFactory = sf
	}
}

func WithSubscriber(sub message.Subscriber) ConnectOption {
	return func(o *ConnectOptions) {
		o.subFactory = func(_ watermill.LoggerAdapter) (message.Subscriber, error) {
			return sub, nil
		}
	}
}

func WithRouterFactory(rf RouterFactory) ConnectOption {
	return func(o *ConnectOptions) {
		o.routerFactory = rf
	}
}
