package pubsub

import (
	"context"
	"time"
)

type SubscribeHandler func(context.Context, *Pack, time.Time)

type Subscriber interface {
	// Subscribe blocks until the consumer has joined its group.
	Subscribe(ctx context.Context)
	Stop(ctx context.Context) error
}
