// Package ratelimit implements fixed-window request caps behind a swappable store.
package ratelimit

import (
	"context"
	"time"
)

// Policy caps MaxRequests per Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

var (
	Strict        = Policy{MaxRequests: 10, Window: time.Minute}
	Normal        = Policy{MaxRequests: 30, Window: time.Minute}
	PaymentCreate = Policy{MaxRequests: 5, Window: time.Minute}
	PaymentCheck  = Policy{MaxRequests: 20, Window: time.Minute}
	Webhook       = Strict
)

type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type Store interface {
	Check(ctx context.Context, key string, policy Policy) (Decision, error)
}

// Key builds identifiers like "payment:203.0.113.7".
func Key(scope, identifier string) string {
	return scope + ":" + identifier
}
