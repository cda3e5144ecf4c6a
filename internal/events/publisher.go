package events

import (
	"context"

	"flux/internal/logger"
	"flux/internal/services"
)

// recalcPublisher is satisfied by *Client.
type recalcPublisher interface {
	PublishRecalculate(ctx context.Context, userID string) error
}

// Publisher is a services.BalanceTrigger that hands recalculation to the
// worker. When publishing fails it recomputes through fallback so the
// balance never goes stale.
type Publisher struct {
	client   recalcPublisher
	fallback services.BalanceTrigger
}

var _ services.BalanceTrigger = (*Publisher)(nil)

// NewPublisher creates a Publisher. fallback may be nil.
func NewPublisher(client recalcPublisher, fallback services.BalanceTrigger) *Publisher {
	return &Publisher{client: client, fallback: fallback}
}

// BalanceChanged publishes a recalculation request for userID.
func (p *Publisher) BalanceChanged(ctx context.Context, userID string) {
	err := p.client.PublishRecalculate(context.WithoutCancel(ctx), userID)
	if err == nil {
		return
	}

	logger.Named("events").Warnw("publishing recalculation failed, recomputing inline", "user_id", userID, "error", err)
	if p.fallback != nil {
		p.fallback.BalanceChanged(ctx, userID)
	}
}
