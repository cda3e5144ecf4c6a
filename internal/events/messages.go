// Package events carries balance recalculation requests over AMQP so ledger
// writes can return before the snapshot is computed.
package events

import (
	"encoding/json"
	"errors"
	"time"

	"flux/internal/uuid"
)

// ErrMalformedMessage is returned for bodies that can never be processed.
var ErrMalformedMessage = errors.New("events: malformed recalculate message")

// RecalculateMessage asks a worker to recompute one user's balance. It only
// names the user; the worker reads the ledger itself.
type RecalculateMessage struct {
	UserID      string    `json:"userId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewRecalculateMessage creates a message stamped with the current time.
func NewRecalculateMessage(userID string) *RecalculateMessage {
	return &RecalculateMessage{UserID: userID, RequestedAt: time.Now().UTC()}
}

// ToJSON encodes the message body.
func (m *RecalculateMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecalculateMessageFromJSON decodes and checks a message body.
func RecalculateMessageFromJSON(data []byte) (*RecalculateMessage, error) {
	var msg RecalculateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	if !uuid.IsValid(msg.UserID) {
		return nil, ErrMalformedMessage
	}
	return &msg, nil
}
