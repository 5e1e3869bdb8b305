package redis

import (
	"context"
	"errors"

	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// eventHook forwards transport failures seen by any command to the
// connection owner, so connectivity drops are noticed as they happen.
type eventHook struct {
	events ports.RemoteEvents
}

func newEventHook(events ports.RemoteEvents) *eventHook {
	return &eventHook{events: events}
}

func (h *eventHook) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *eventHook) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	h.report(ctx, cmd.Err())
	return nil
}

func (h *eventHook) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *eventHook) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	for _, cmd := range cmds {
		if IsTransportError(cmd.Err()) {
			h.report(ctx, cmd.Err())
			break
		}
	}
	return nil
}

func (h *eventHook) report(ctx context.Context, err error) {
	// context errors say nothing about the connection; the caller decides
	// whether an operation timeout demotes
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return
	}
	if IsTransportError(err) {
		h.events.OnError(err)
	}
}

// IsTransportError reports whether err came from the connection rather than
// from a Redis reply. redis.Nil and server error replies are not transport
// failures.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
