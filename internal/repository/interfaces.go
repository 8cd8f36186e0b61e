package repository

import (
	"context"

	"deadpoets/internal/cache"
	"deadpoets/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// FindConflict reports which unique field ("username" or "email") is
	// already taken by a user other than excludeID, or "" if neither is.
	FindConflict(ctx context.Context, username, email, excludeID string) (string, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, passwordHashed string) error
	Delete(ctx context.Context, id string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// GetByIDs hydrates posts for the given ids, preserving the input order.
	GetByIDs(ctx context.Context, ids []string) ([]model.Post, error)
	// List returns posts newest-first. An empty tags slice means no filter;
	// otherwise posts containing any of the given tags are returned.
	List(ctx context.Context, offset, limit int, tags []string) ([]model.Post, error)
	Count(ctx context.Context, tags []string) (int, error)
	Update(ctx context.Context, id string, req *model.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, id string) (*model.Post, error)
	DeleteAll(ctx context.Context) (int64, error)
	// UpdateLikeCount atomically applies delta to like_count, floored at 0,
	// and returns the updated post.
	UpdateLikeCount(ctx context.Context, id string, delta int) (*model.Post, error)
	// GetRecentPosts returns the newest post ids with their created-at
	// scores, used for warming the timeline cache.
	GetRecentPosts(ctx context.Context, limit int) ([]cache.PostScore, error)
}
