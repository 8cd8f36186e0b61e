package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the timeline stream
const (
	EventPostCreated     = "post_created"
	EventPostDeleted     = "post_deleted"
	EventTimelineCleared = "timeline_cleared"
)

// Stream names
const (
	StreamTimeline = "stream:timeline"
)

// Consumer group name for timeline workers
const (
	ConsumerGroupTimeline = "timeline_workers"
)

// PostEvent represents a post lifecycle event published to the timeline
// stream. All timeline events share this structure.
type PostEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Post events (PostCreated, PostDeleted)
	PostID    string `json:"post_id,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"` // Unix milliseconds, score for the timeline
}

// NewPostCreatedEvent creates an event for a newly published post.
// The worker will insert the post into the timeline cache.
func NewPostCreatedEvent(postID string, createdAt time.Time) PostEvent {
	return PostEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		CreatedAt: createdAt.UnixMilli(),
	}
}

// NewPostDeletedEvent creates an event for a deleted post.
// The worker will remove the post from the timeline cache.
func NewPostDeletedEvent(postID string) PostEvent {
	return PostEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
	}
}

// NewTimelineClearedEvent creates an event for a bulk post deletion.
// The worker will drop the timeline cache entirely.
func NewTimelineClearedEvent() PostEvent {
	return PostEvent{
		Type:      EventTimelineCleared,
		Timestamp: time.Now().Unix(),
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e PostEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParsePostEvent parses a PostEvent from Redis stream message values.
func ParsePostEvent(values map[string]interface{}) (PostEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return PostEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event PostEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return PostEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
