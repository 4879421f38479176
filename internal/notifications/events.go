// Package notifications fans board changes out to every connected websocket
// session, optionally through Redis so several server instances share one
// stream.
package notifications

import (
	"encoding/json"
	"fmt"
)

// Event types sent to clients.
const (
	EventUpdatePost      = "updatePost"
	EventDeletePost      = "deletePost"
	EventConnected       = "connected"
	EventMessagesDropped = "messages_dropped"
)

// Event is the envelope written to every websocket frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals the event into its wire form.
func (e Event) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(data), nil
}

// typeOf extracts the event type from an encoded payload for metrics.
func typeOf(payload string) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &probe); err != nil || probe.Type == "" {
		return "unknown"
	}
	return probe.Type
}
