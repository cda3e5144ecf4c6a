package events

import (
	"context"
	"errors"

	apperrors "flux/internal/errors"
	"flux/internal/logger"
	"flux/internal/services"
)

// Handler processes one decoded recalculation request.
type Handler func(ctx context.Context, msg *RecalculateMessage) error

// acknowledger is the part of amqp091.Delivery the consumer needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// RecalculateHandler recomputes the balance named by each message.
func RecalculateHandler(balances services.BalanceServicer) Handler {
	return func(ctx context.Context, msg *RecalculateMessage) error {
		_, err := balances.Recalculate(ctx, msg.UserID)
		return err
	}
}

// handleDelivery decodes body and runs handler. Malformed bodies and
// requests for deleted users are dropped; other failures are requeued.
func handleDelivery(ctx context.Context, body []byte, d acknowledger, handler Handler) {
	log := logger.Named("events")

	msg, err := RecalculateMessageFromJSON(body)
	if err != nil {
		log.Errorw("dropping malformed message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !errors.Is(err, apperrors.ErrUserNotFound)
		log.Errorw("recalculation failed", "user_id", msg.UserID, "requeue", requeue, "error", err)
		_ = d.Nack(false, requeue)
		return
	}

	_ = d.Ack(false)
	log.Debugw("recalculation done", "user_id", msg.UserID)
}
