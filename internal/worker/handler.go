package worker

import (
	"context"
	"fmt"
	"log"

	"deadpoets/internal/cache"
	"deadpoets/internal/queue"
)

// Handler applies post lifecycle events from the queue to the timeline cache.
type Handler struct {
	timeline cache.TimelineCache
}

// NewHandler creates a new event handler.
func NewHandler(timeline cache.TimelineCache) *Handler {
	return &Handler{timeline: timeline}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.PostEvent) error {
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventTimelineCleared:
		err = h.handleTimelineCleared(ctx)
	default:
		log.Printf("[Worker] Unknown event type: %q", event.Type)
		return fmt.Errorf("unknown event type: %q", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s err=%v", event.Type, err)
		return err
	}

	return nil
}

// handlePostCreated inserts a new post into the timeline cache.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.PostEvent) error {
	log.Printf("[Worker] PostCreated: post=%s", event.PostID)
	return h.timeline.AddPost(ctx, event.PostID, event.CreatedAt)
}

// handlePostDeleted removes a post from the timeline cache.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.PostEvent) error {
	log.Printf("[Worker] PostDeleted: post=%s", event.PostID)
	return h.timeline.RemovePost(ctx, event.PostID)
}

// handleTimelineCleared drops the timeline cache after a bulk delete.
func (h *Handler) handleTimelineCleared(ctx context.Context) error {
	log.Printf("[Worker] TimelineCleared")
	return h.timeline.Clear(ctx)
}
