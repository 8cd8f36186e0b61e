package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"deadpoets/internal/cache"
	"deadpoets/internal/queue"
)

// mockTimeline records the cache operations the handler performs.
type mockTimeline struct {
	addFn    func(ctx context.Context, postID string, timestamp int64) error
	removeFn func(ctx context.Context, postID string) error
	clearFn  func(ctx context.Context) error

	added   []cache.PostScore
	removed []string
	cleared int
}

func (m *mockTimeline) AddPost(ctx context.Context, postID string, timestamp int64) error {
	m.added = append(m.added, cache.PostScore{PostID: postID, Timestamp: timestamp})
	if m.addFn != nil {
		return m.addFn(ctx, postID, timestamp)
	}
	return nil
}

func (m *mockTimeline) RemovePost(ctx context.Context, postID string) error {
	m.removed = append(m.removed, postID)
	if m.removeFn != nil {
		return m.removeFn(ctx, postID)
	}
	return nil
}

func (m *mockTimeline) Clear(ctx context.Context) error {
	m.cleared++
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

func (m *mockTimeline) GetPage(ctx context.Context, offset, limit int) ([]string, error) {
	return nil, nil
}

func (m *mockTimeline) Size(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockTimeline) Exists(ctx context.Context) (bool, error) { return true, nil }

func (m *mockTimeline) WarmCache(ctx context.Context, posts []cache.PostScore) error { return nil }

func TestHandler_PostCreated(t *testing.T) {
	timeline := &mockTimeline{}
	h := NewHandler(timeline)

	createdAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	event := queue.NewPostCreatedEvent("64f1b2c3d4e5f60718293a4c", createdAt)

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(timeline.added) != 1 {
		t.Fatalf("AddPost called %d times, want 1", len(timeline.added))
	}
	if timeline.added[0].PostID != "64f1b2c3d4e5f60718293a4c" {
		t.Errorf("added post = %q, want the event's post", timeline.added[0].PostID)
	}
	if timeline.added[0].Timestamp != createdAt.UnixMilli() {
		t.Errorf("score = %d, want created-at in unix millis %d", timeline.added[0].Timestamp, createdAt.UnixMilli())
	}
}

func TestHandler_PostDeleted(t *testing.T) {
	timeline := &mockTimeline{}
	h := NewHandler(timeline)

	event := queue.NewPostDeletedEvent("64f1b2c3d4e5f60718293a4c")

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(timeline.removed) != 1 || timeline.removed[0] != "64f1b2c3d4e5f60718293a4c" {
		t.Errorf("removed = %v, want the event's post", timeline.removed)
	}
}

func TestHandler_TimelineCleared(t *testing.T) {
	timeline := &mockTimeline{}
	h := NewHandler(timeline)

	if err := h.HandleEvent(context.Background(), queue.NewTimelineClearedEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if timeline.cleared != 1 {
		t.Errorf("Clear called %d times, want 1", timeline.cleared)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	timeline := &mockTimeline{}
	h := NewHandler(timeline)

	err := h.HandleEvent(context.Background(), queue.PostEvent{Type: "mystery"})

	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if len(timeline.added) != 0 || len(timeline.removed) != 0 || timeline.cleared != 0 {
		t.Error("unknown events must not touch the cache")
	}
}

func TestHandler_CacheErrorPropagates(t *testing.T) {
	cacheErr := errors.New("redis down")
	timeline := &mockTimeline{
		addFn: func(ctx context.Context, postID string, timestamp int64) error {
			return cacheErr
		},
	}
	h := NewHandler(timeline)

	err := h.HandleEvent(context.Background(), queue.NewPostCreatedEvent("64f1b2c3d4e5f60718293a4c", time.Now()))

	if !errors.Is(err, cacheErr) {
		t.Errorf("error = %v, want the cache error", err)
	}
}
