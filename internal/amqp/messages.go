package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

var ErrInvalidMessage = errors.New("invalid change message")

// ChangeMessage carries one store change to the remote mirror. Payload holds
// the entity as JSON and is empty for deletions.
type ChangeMessage struct {
	Kind       string          `json:"kind"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewChangeMessage encodes entity as the payload. A nil entity leaves it empty.
func NewChangeMessage(kind, collection, id string, entity any) (*ChangeMessage, error) {
	msg := &ChangeMessage{
		Kind:       kind,
		Collection: collection,
		ID:         id,
		Timestamp:  time.Now(),
	}
	if entity != nil {
		payload, err := json.Marshal(entity)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		msg.Payload = payload
	}
	return msg, nil
}

func (m *ChangeMessage) Validate() error {
	switch m.Kind {
	case KindCreated, KindUpdated:
		if len(m.Payload) == 0 {
			return fmt.Errorf("%w: %s without payload", ErrInvalidMessage, m.Kind)
		}
	case KindDeleted:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
	if m.Collection == "" {
		return fmt.Errorf("%w: missing collection", ErrInvalidMessage)
	}
	if m.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	return nil
}

// Decode unmarshals the payload into v.
func (m *ChangeMessage) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: decode %s payload: %v", ErrInvalidMessage, m.Collection, err)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON parses and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
