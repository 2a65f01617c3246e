package vsmmq

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	wnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
)

// Caller is synchronous request/reply over the bus, used to fetch a remote
// container's state without registering a handler.
type Caller interface {
	Call(ctx context.Context, topic string, message *message.Message) (*message.Message, error)
	Close() error
}

type NatsCallerConfig struct {
	URL         string
	Marshaler   wnats.Marshaler
	Unmarshaler wnats.Unmarshaler
}

type NatsCaller struct {
	conn        *nats.Conn
	marshaler   wnats.Marshaler
	unmarshaler wnats.Unmarshaler
}

func NewNatsCaller(cfg *NatsCallerConfig) (*NatsCaller, error) {
	if cfg == nil {
		cfg = new(NatsCallerConfig)
	}

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	marshaler := new(wnats.NATSMarshaler)

	if cfg.Marshaler == nil {
		cfg.Marshaler = marshaler
	}

	if cfg.Unmarshaler == nil {
		cfg.Unmarshaler = marshaler
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NatsCaller{
		conn:        conn,
		marshaler:   cfg.Marshaler,
		unmarshaler: cfg.Unmarshaler,
	}, nil
}

func (nc *NatsCaller) Call(ctx context.Context, topic string, request *message.Message) (*message.Message, error) {
	natsRequest, err := nc.marshaler.Marshal(topic, request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal nats message: %w", err)
	}

	natsResponse, err := nc.conn.RequestMsgWithContext(ctx, natsRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to send nats message: %w", err)
	}

	response, err := nc.unmarshaler.Unmarshal(natsResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nats message: %w", err)
	}

	return response, nil
}

func (nc *NatsCaller) Close() error {
	nc.conn.Close()

	return nil
}
