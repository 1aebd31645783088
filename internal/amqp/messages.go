package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fintrack/internal/persistence"
)

// SnapshotSavedMessage announces that a user's ledger snapshot was written to
// the primary store. It carries no ledger data; consumers reload the snapshot.
type SnapshotSavedMessage struct {
	UserID    string    `json:"user_id"`
	Version   uint64    `json:"version"`
	Items     int       `json:"items"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSnapshotSavedMessage builds a message from a save event.
func NewSnapshotSavedMessage(ev persistence.SnapshotSaved) *SnapshotSavedMessage {
	ts := ev.SavedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &SnapshotSavedMessage{
		UserID:    ev.UserID,
		Version:   ev.Version,
		Items:     ev.Items,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSavedMessageFromJSON decodes a message and checks it names a user.
func SnapshotSavedMessageFromJSON(data []byte) (*SnapshotSavedMessage, error) {
	var msg SnapshotSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("snapshot message without user_id")
	}
	return &msg, nil
}
