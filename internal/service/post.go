package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"deadpoets/internal/cache"
	"deadpoets/internal/model"
	"deadpoets/internal/queue"
	"deadpoets/internal/repository"
)

// PostService handles business logic for post operations.
// The timeline cache and event publisher are optional: when either is nil
// (or Redis misbehaves) every operation falls through to Postgres.
type PostService struct {
	repo      repository.PostRepository
	timeline  cache.TimelineCache
	publisher queue.Publisher
}

func NewPostService(repo repository.PostRepository, timeline cache.TimelineCache, publisher queue.Publisher) *PostService {
	return &PostService{
		repo:      repo,
		timeline:  timeline,
		publisher: publisher,
	}
}

// Create publishes a new post authored by the authenticated user.
func (s *PostService) Create(ctx context.Context, claims *model.AuthClaims, req *model.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	if len(tags) > model.MaxTags {
		return nil, model.ErrTooManyTags
	}

	// Creator is the username at creation time; it never follows a rename.
	creator := claims.Username
	if creator == "" {
		creator = claims.Email
	}

	post := &model.Post{
		ID:      model.NewID(),
		Title:   title,
		Message: message,
		Creator: creator,
		Tags:    tags,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.publish(ctx, queue.NewPostCreatedEvent(post.ID, post.CreatedAt))

	return post, nil
}

// List returns posts newest-first with pagination and optional tag filtering.
// The untagged front window is served from the timeline cache when warm.
func (s *PostService) List(ctx context.Context, page, limit int, tags []string) ([]model.Post, model.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	total, err := s.repo.Count(ctx, tags)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	posts, err := s.listPosts(ctx, offset, limit, tags)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	pagination := model.Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	}

	return posts, pagination, nil
}

// listPosts picks the cache or database path for one page.
func (s *PostService) listPosts(ctx context.Context, offset, limit int, tags []string) ([]model.Post, error) {
	if s.timeline != nil && len(tags) == 0 && offset+limit <= cache.TimelineCap {
		if posts, ok := s.listFromCache(ctx, offset, limit); ok {
			return posts, nil
		}
	}

	return s.repo.List(ctx, offset, limit, tags)
}

// listFromCache serves a page from the timeline cache, warming it on a
// cold start. Returns ok=false when the page cannot be served from cache;
// cache errors degrade to the database path rather than failing the request.
func (s *PostService) listFromCache(ctx context.Context, offset, limit int) ([]model.Post, bool) {
	exists, err := s.timeline.Exists(ctx)
	if err != nil {
		log.Printf("[PostService] timeline check failed, using database: %v", err)
		return nil, false
	}

	if !exists {
		scores, err := s.repo.GetRecentPosts(ctx, cache.TimelineCap)
		if err != nil {
			log.Printf("[PostService] timeline warm query failed: %v", err)
			return nil, false
		}
		if err := s.timeline.WarmCache(ctx, scores); err != nil {
			return nil, false
		}
	}

	size, err := s.timeline.Size(ctx)
	if err != nil {
		return nil, false
	}

	// Serve from cache only when the whole window is inside it; pages that
	// straddle the cache boundary come from the database.
	if int64(offset) >= size && offset > 0 {
		return nil, false
	}
	if int64(offset+limit) > size {
		// The cache holds every post when it is under its cap, so a short
		// final page is still authoritative.
		count, err := s.repo.Count(ctx, nil)
		if err != nil || int64(count) > size {
			return nil, false
		}
	}

	ids, err := s.timeline.GetPage(ctx, offset, limit)
	if err != nil {
		return nil, false
	}

	posts, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[PostService] timeline hydration failed, using database: %v", err)
		return nil, false
	}

	return posts, true
}

// GetByID retrieves a single post.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if !model.IsValidID(id) {
		return nil, model.ErrInvalidID
	}
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update to a post owned by the caller.
func (s *PostService) Update(ctx context.Context, id string, claims *model.AuthClaims, req *model.UpdatePostRequest) (*model.Post, error) {
	if !model.IsValidID(id) {
		return nil, model.ErrInvalidID
	}
	if req.Title == nil && req.Message == nil && req.Tags == nil {
		return nil, model.ErrNoFieldsToUpdate
	}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if err := validateTitle(trimmed); err != nil {
			return nil, err
		}
		req.Title = &trimmed
	}
	if req.Message != nil {
		trimmed := strings.TrimSpace(*req.Message)
		if err := validateMessage(trimmed); err != nil {
			return nil, err
		}
		req.Message = &trimmed
	}
	if req.Tags != nil && len(*req.Tags) > model.MaxTags {
		return nil, model.ErrTooManyTags
	}

	if err := s.checkOwnership(ctx, id, claims); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, req)
}

// Delete removes a post owned by the caller and returns the deleted post.
func (s *PostService) Delete(ctx context.Context, id string, claims *model.AuthClaims) (*model.Post, error) {
	if !model.IsValidID(id) {
		return nil, model.ErrInvalidID
	}

	if err := s.checkOwnership(ctx, id, claims); err != nil {
		return nil, err
	}

	post, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.NewPostDeletedEvent(post.ID))

	return post, nil
}

// Like applies a like or unlike to a post. The counter update is a single
// atomic statement floored at zero; there is no per-user deduplication, the
// client decides which action to send.
func (s *PostService) Like(ctx context.Context, id, action string) (*model.Post, error) {
	if !model.IsValidID(id) {
		return nil, model.ErrInvalidID
	}

	var delta int
	switch action {
	case model.ActionLike:
		delta = 1
	case model.ActionUnlike:
		delta = -1
	default:
		return nil, model.ErrInvalidAction
	}

	return s.repo.UpdateLikeCount(ctx, id, delta)
}

// DeleteAll removes every post and returns how many were deleted.
func (s *PostService) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	s.publish(ctx, queue.NewTimelineClearedEvent())

	return deleted, nil
}

// checkOwnership verifies the caller authored the post.
func (s *PostService) checkOwnership(ctx context.Context, id string, claims *model.AuthClaims) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Creator != claims.Username {
		return model.ErrNotPostOwner
	}
	return nil
}

// publish sends a timeline event, best-effort. The cache self-heals on the
// next warm, so a lost event never fails the request.
func (s *PostService) publish(ctx context.Context, event queue.PostEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamTimeline, event); err != nil {
		log.Printf("[PostService] publish %s failed: %v", event.Type, err)
	}
}

func validateTitle(title string) error {
	if len(title) < model.MinTitleLength || len(title) > model.MaxTitleLength {
		return model.ErrInvalidTitle
	}
	return nil
}

func validateMessage(message string) error {
	if len(message) < model.MinMessageLength {
		return model.ErrMessageTooShort
	}
	return nil
}
