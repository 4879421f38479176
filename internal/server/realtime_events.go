package server

import (
	"context"

	"pepeboard/internal/models"
	"pepeboard/internal/notifications"
)

// boardEvents turns committed board changes into websocket events.
type boardEvents struct {
	broadcaster *notifications.Broadcaster
}

func newBoardEvents(b *notifications.Broadcaster) *boardEvents {
	return &boardEvents{broadcaster: b}
}

func (e *boardEvents) PostUpdated(_ context.Context, post *models.Post) {
	e.broadcaster.Publish(notifications.Event{
		Type:    notifications.EventUpdatePost,
		Payload: post,
	})
}

func (e *boardEvents) PostDeleted(_ context.Context, id int64) {
	e.broadcaster.Publish(notifications.Event{
		Type:    notifications.EventDeletePost,
		Payload: id,
	})
}
