package ratelimit

import "context"

// Limiter paces fax submissions per scope. The dispatcher uses the batch
// channel as the scope so FCL drops and API calls are throttled separately.
type Limiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
