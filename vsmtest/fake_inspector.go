package vsmtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/vsmkit/vsm_go/vsm"
)

// FakeInspector plays the remote side of a state mirror in tests: it
// watches published state transitions, pushes states into the container and
// issues get_state requests, all over an in-process pub/sub.
type FakeInspector struct {
	pub message.Publisher
	sub message.Subscriber

	topics *vsm.Topics
}

func NewFakeInspector(pub message.Publisher, sub message.Subscriber, container string) *FakeInspector {
	return &FakeInspector{
		pub:    pub,
		sub:    sub,
		topics: vsm.NewTopics(container),
	}
}

// Watch subscribes to the mirror's did_change topic and returns the raw
// payloads, acked as they arrive.
func (f *FakeInspector) Watch(ctx context.Context) (<-chan []byte, error) {
	messages, err := f.sub.Subscribe(ctx, f.topics.DidChange())
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to state changes: %w", err)
	}

	payloads := make(chan []byte)

	go func() {
		defer close(payloads)

		for {
			select {
			case <-ctx.Done():
				return

			case msg, ok := <-messages:
				if !ok {
					return
				}
				msg.Ack()

				select {
				case payloads <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return payloads, nil
}

// Push publishes state to the mirror's set_state topic.
func (f *FakeInspector) Push(state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	return f.pub.Publish(
		f.topics.SetState(),
		message.NewMessage(watermill.NewUUID(), raw),
	)
}

// RequestState sends a get_state request and waits for the reply on the
// send_state topic. It's a blocking function; bound it with
// context.WithTimeout.
func (f *FakeInspector) RequestState(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := f.sub.Subscribe(ctx, f.topics.SendState())
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to state replies: %w", err)
	}

	err = f.pub.Publish(
		f.topics.GetState(),
		message.NewMessage(watermill.NewUUID(), nil),
	)
	if err != nil {
		return nil, fmt.Errorf("could not publish state request: %w", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		return msg.Payload, nil

	case <-ctx.Done():
		return nil, fmt.Errorf("context is canceled before the state reply is received: %w", ctx.Err())
	}
}
