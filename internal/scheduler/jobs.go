package scheduler

import (
	"context"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// QuoteRefresher refreshes portfolio prices.
type QuoteRefresher interface {
	RefreshQuotes(ctx context.Context) (model.PortfolioResponse, error)
}

// Pusher pushes queued ledger changes to the mirror.
type Pusher interface {
	Push(ctx context.Context) (int, error)
}

// QuoteRefreshJob refreshes quotes on the given cron schedule.
func QuoteRefreshJob(spec string, r QuoteRefresher) Job {
	return Job{
		Name: "quote-refresh",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := r.RefreshQuotes(ctx)
			return err
		},
	}
}

// MirrorPushJob pushes the sync outbox on the given cron schedule.
func MirrorPushJob(spec string, p Pusher) Job {
	return Job{
		Name: "mirror-push",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := p.Push(ctx)
			return err
		},
	}
}
