package gcp

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub"
)

// Subscription is the part of *gcppubsub.Subscription the receiver relies on
type Subscription interface {
	String() string
	ID() string
	Delete(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

var _ Subscription = &gcppubsub.Subscription{}
