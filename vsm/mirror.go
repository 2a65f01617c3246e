package vsm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/vsmkit/vsm_go/vsmmq"
)

// Mirror exposes one container on a message bus. Every value that becomes
// current is published to the did_change topic, remote tooling can read the
// state through get_state request/reply and drive it through set_state.
// The mirror is a plain bus client; all cancellation and ordering rules
// stay with the container.
type Mirror[T any] struct {
	name      string
	container *Container[T]
	logger    *slog.Logger

	watermillLogger watermill.LoggerAdapter
	router          *message.Router
	pub             message.Publisher
	sub             message.Subscriber
	call            vsmmq.Caller

	topics *Topics
}

func NewMirror[T any](name string, container *Container[T], opts ...MirrorOption) *Mirror[T] {
	options := &MirrorOptions{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Mirror[T]{
		name:      name,
		container: container,
		logger:    options.logger,
		pub:       options.pub,
		sub:       options.sub,
		call:      options.call,
		topics:    NewTopics(name),
	}
}

// Run connects to the bus through the configured factories (NATS by
// default), registers the state handlers and forwards state transitions
// until ctx is canceled. The mirror must have been created without an
// explicit pub/sub pair.
func (m *Mirror[T]) Run(ctx context.Context, opts ...ConnectOption) error {
	if m.pub != nil || m.sub != nil {
		return fmt.Errorf("pub and sub must be nil if you want to run the mirror this way")
	}

	options := &ConnectOptions{
		watermillLogger: watermill.NopLogger{},
		pubFactory:      DefaultPublisherFactory(DefaultNatsURL),
		subFactory:      DefaultSubscriberFactory(DefaultNatsURL),
		routerFactory:   DefaultRouterFactory,
	}
	for _, opt := range opts {
		opt(options)
	}

	m.watermillLogger = options.watermillLogger

	var err error

	m.sub, err = options.subFactory(options.watermillLogger)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	m.pub, err = options.pubFactory(options.watermillLogger)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	m.router = options.routerFactory(options.watermillLogger)

	m.RegisterStateHandlers(m.router)
	m.Forward(ctx)

	if err := m.router.Run(ctx); err != nil {
		return fmt.Errorf("failed to run router: %w", err)
	}

	return nil
}

// RegisterStateHandlers adds the get_state request/reply handler and the
// set_state drive handler to r. Useful on its own when the caller owns the
// router and the pub/sub pair.
func (m *Mirror[T]) RegisterStateHandlers(r *message.Router) {
	r.AddHandler(
		"vsm.request_state",
		m.topics.GetState(),
		m.sub,
		m.topics.SendState(),
		m.pub,
		m.handleStateRequest,
	)

	r.AddNoPublisherHandler(
		"vsm.set_state",
		m.topics.SetState(),
		m.sub,
		m.handleSetState,
	)
}

func (m *Mirror[T]) handleStateRequest(_ *message.Message) ([]*message.Message, error) {
	raw, err := json.Marshal(m.container.State())
	if err != nil {
		return nil, fmt.Errorf("could not marshal state: %w", err)
	}

	return []*message.Message{
		message.NewMessage(watermill.NewUUID(), raw),
	}, nil
}

func (m *Mirror[T]) handleSetState(msg *message.Message) error {
	var value T
	if err := json.Unmarshal(msg.Payload, &value); err != nil {
		return fmt.Errorf("could not unmarshal state: %w", err)
	}

	m.container.Observe(value)
	msg.Ack()

	return nil
}

// Forward subscribes to the container's DidChange stream and publishes each
// value to the did_change topic until ctx is canceled. Publish failures are
// logged and skipped; the stream keeps flowing.
func (m *Mirror[T]) Forward(ctx context.Context) {
	states := m.container.DidChange(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case value, ok := <-states:
				if !ok {
					return
				}

				if err := m.publishState(value); err != nil {
					m.logger.ErrorContext(ctx, "could not publish state", slog.String("err", err.Error()))
				}
			}
		}
	}()
}

func (m *Mirror[T]) publishState(value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	return m.pub.Publish(
		m.topics.DidChange(),
		message.NewMessage(watermill.NewUUID(), raw),
	)
}

// FetchState queries a remote mirror of the same name for its current state
// through the request/reply caller.
func (m *Mirror[T]) FetchState(ctx context.Context) (T, error) {
	var zero T

	if m.call == nil {
		return zero, fmt.Errorf("caller is not configured")
	}

	reply, err := m.call.Call(
		ctx,
		m.topics.GetState(),
		message.NewMessage(watermill.NewUUID(), []byte(m.name)),
	)
	if err != nil {
		return zero, fmt.Errorf("could not request state: %w", err)
	}

	var value T
	if err := json.Unmarshal(reply.Payload, &value); err != nil {
		return zero, fmt.Errorf("could not unmarshal state: %w", err)
	}

	return value, nil
}

func (m *Mirror[T]) Close(ctx context.Context) {
	if m.pub != nil {
		if err := m.pub.Close(); err != nil {
			m.logger.ErrorContext(ctx, "failed to close publisher", slog.String("err", err.Error()))
		}

		m.pub = nil
	}

	if m.sub != nil {
		if err := m.sub.Close(); err != nil {
			m.logger.ErrorContext(ctx, "failed to close subscriber", slog.String("err", err.Error()))
		}

		m.sub = nil
	}
}
