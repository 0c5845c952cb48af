package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event actions.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// EntryEvent announces a change to a ledger entry. It carries only the id and
// version; consumers read the current row from the database.
type EntryEvent struct {
	MessageID string    `json:"message_id"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Version   int64     `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUpsertEvent creates an event for a created or updated entry.
func NewUpsertEvent(id, version int64) *EntryEvent {
	return &EntryEvent{
		MessageID: uuid.NewString(),
		Action:    ActionUpsert,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewDeleteEvent creates an event for a removed entry.
func NewDeleteEvent(id int64) *EntryEvent {
	return &EntryEvent{
		MessageID: uuid.NewString(),
		Action:    ActionDelete,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// RoutingKey is the per-action routing key, e.g. "entry.upsert".
func (e *EntryEvent) RoutingKey() string {
	return "entry." + e.Action
}

func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes and checks an event body.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var ev EntryEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Action {
	case ActionUpsert, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown action %q", ev.Action)
	}
	if ev.ID <= 0 {
		return nil, fmt.Errorf("invalid entry id %d", ev.ID)
	}
	return &ev, nil
}
