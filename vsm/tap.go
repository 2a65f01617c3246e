package vsm

import (
	"fmt"
	"log/slog"
)

// TapFlag selects which state transitions the diagnostic tap logs. The tap
// is purely passive: it reads values on the dispatch context and has no
// effect on delivery or ordering. Default is off.
type TapFlag uint8

const (
	TapWillChange TapFlag = 1 << iota
	TapDidChange
	// TapIdentity adds the container's memory identity to each line, to
	// tell apart several containers holding the same state type.
	TapIdentity

	TapAll = TapWillChange | TapDidChange | TapIdentity
)

func (c *Container[T]) tapWillChange(value T) {
	if c.tap&TapWillChange == 0 {
		return
	}

	c.logger.Debug("state will change", c.tapAttrs(value)...)
}

func (c *Container[T]) tapDidChange(value T) {
	if c.tap&TapDidChange == 0 {
		return
	}

	c.logger.Debug("state did change", c.tapAttrs(value)...)
}

func (c *Container[T]) tapAttrs(value T) []any {
	attrs := []any{
		slog.String("state", fmt.Sprintf("%v", value)),
		slog.String("type", fmt.Sprintf("%T", value)),
	}

	if c.tap&TapIdentity != 0 {
		attrs = append(attrs, slog.String("container", fmt.Sprintf("%p", c)))
	}

	return attrs
}
