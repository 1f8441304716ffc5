package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"organizapay/internal/core"
)

// ChangeMessage is the wire form of a record change. It names the user and
// collection only; consumers reload whatever they need from the store.
type ChangeMessage struct {
	core.ChangeEvent
}

// NewChangeMessage wraps ev, stamping it with the current time if unset.
func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return &ChangeMessage{ChangeEvent: ev}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones without a user.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("change message without user_id")
	}
	return &msg, nil
}
