package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DatasetReloadMessage announces that a new dataset snapshot is stored and
// servers should rebuild their session from it.
type DatasetReloadMessage struct {
	SnapshotID string    `json:"snapshot_id"`
	Rows       int       `json:"rows"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewDatasetReloadMessage creates a reload message stamped with the current time.
func NewDatasetReloadMessage(snapshotID string, rows int, source string) *DatasetReloadMessage {
	return &DatasetReloadMessage{
		SnapshotID: snapshotID,
		Rows:       rows,
		Source:     source,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetReloadMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetReloadMessageFromJSON decodes a message and rejects one without a snapshot id.
func DatasetReloadMessageFromJSON(data []byte) (*DatasetReloadMessage, error) {
	var msg DatasetReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SnapshotID == "" {
		return nil, errors.New("missing snapshot_id")
	}
	return &msg, nil
}
