package vsm

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/vsmkit/vsm_go/vsmmq"
)

type MirrorOptions struct {
	logger *slog.Logger
	pub    message.Publisher
	sub    message.Subscriber
	call   vsmmq.Caller
}

type MirrorOption func(*MirrorOptions)

func WithMirrorLogger(logger *slog.Logger) MirrorOption {
	return func(o *MirrorOptions) {
		o.logger = logger
	}
}

func WithMirrorPub(pub message.Publisher) MirrorOption {
	return func(o *MirrorOptions) {
		o.pub = pub
	}
}

func WithMirrorSub(sub message.Subscriber) MirrorOption {
	return func(o *MirrorOptions) {
		o.sub = sub
	}
}

func WithMirrorCall(call vsmmq.Caller) MirrorOption {
	return func(o *MirrorOptions) {
		o.call = call
	}
}
