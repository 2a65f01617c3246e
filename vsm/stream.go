package vsm

import (
	"context"
	"sync"
)

// multicast fans one ordered sequence of values out to any number of
// subscriber channels. Publishing never blocks on a slow subscriber: each
// subscriber owns a FIFO drained by its own pump goroutine, so delivery
// order always equals publish order.
type multicast[T any] struct {
	mu     sync.Mutex
	subs   map[int]*subscriber[T]
	nextID int
	last   T
	seen   bool
	closed bool
}

type subscriber[T any] struct {
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	out   chan T
	stop  chan struct{}
}

func newMulticast[T any]() *multicast[T] {
	return &multicast[T]{
		subs: make(map[int]*subscriber[T]),
	}
}

func (m *multicast[T]) publish(value T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.last = value
	m.seen = true

	for _, sub := range m.subs {
		sub.push(value)
	}
}

// subscribe registers a new subscriber channel. The most recent published
// value, if any, is replayed as the first element. Cancel ctx to
// unsubscribe; the channel is closed once the pump exits.
func (m *multicast[T]) subscribe(ctx context.Context) <-chan T {
	sub := &subscriber[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		stop: make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(sub.out)
		return sub.out
	}

	id := m.nextID
	m.nextID++
	m.subs[id] = sub

	if m.seen {
		sub.push(m.last)
	}
	m.mu.Unlock()

	go func() {
		defer close(sub.out)

		for {
			select {
			case <-ctx.Done():
				m.drop(id)
				return

			case <-sub.stop:
				return

			case <-sub.wake:
			}

			if !sub.flush(ctx) {
				m.drop(id)
				return
			}
		}
	}()

	return sub.out
}

func (m *multicast[T]) drop(id int) {
	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
}

func (m *multicast[T]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for id, sub := range m.subs {
		close(sub.stop)
		delete(m.subs, id)
	}
}

func (s *subscriber[T]) push(value T) {
	s.mu.Lock()
	s.queue = append(s.queue, value)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// flush drains the queue into out. Returns false once ctx is done.
func (s *subscriber[T]) flush(ctx context.Context) bool {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return true
		}
		value := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- value:

		case <-ctx.Done():
			return false

		case <-s.stop:
			return false
		}
	}
}
