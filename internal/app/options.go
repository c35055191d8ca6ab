package app

import (
	"time"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Option configures a service.
type Option func(*options)

type options struct {
	now      func() time.Time
	identity domain.IdentityProvider
	retries  uint64
	policy   domain.ApprovalPolicy
}

func defaultOptions() options {
	return options{
		now:      func() time.Time { return time.Now().UTC() },
		identity: domain.ContextIdentity{},
		retries:  3,
		policy:   domain.ApprovalActivate,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIdentity overrides how the acting user is resolved.
func WithIdentity(p domain.IdentityProvider) Option {
	return func(o *options) { o.identity = p }
}

// WithConflictRetries sets how many times a write that lost a
// compare-and-swap is reloaded and retried.
func WithConflictRetries(n uint64) Option {
	return func(o *options) { o.retries = n }
}

// WithApprovalPolicy sets what company an approved request becomes.
func WithApprovalPolicy(p domain.ApprovalPolicy) Option {
	return func(o *options) { o.policy = p }
}
