package vsm

import "log/slog"

type Options struct {
	logger   *slog.Logger
	dispatch Dispatcher
	onError  func(error)
	tap      TapFlag
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func WithDispatcher(dispatch Dispatcher) Option {
	return func(o *Options) {
		o.dispatch = dispatch
	}
}

// WithOnError installs a hook for observations that terminate with a
// producer failure instead of a state. Without it such failures are logged
// and the current state is left untouched.
func WithOnError(fn func(error)) Option {
	return func(o *Options) {
		o.onError = fn
	}
}

func WithTap(flags TapFlag) Option {
	return func(o *Options) {
		o.tap = flags
	}
}
