package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"deadpoets/internal/cache"
	"deadpoets/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (id, title, message, creator, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING like_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Title,
		p.Message,
		p.Creator,
		pq.Array([]string(p.Tags)),
	)

	if err := row.Scan(&p.LikeCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetByID retrieves a single post.
func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	query := `
		SELECT id, title, message, creator, tags, like_count, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

// GetByIDs retrieves multiple posts, preserving the order of the input ids.
// Used for hydrating the listing from the timeline cache.
func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	query := `
		SELECT id, title, message, creator, tags, like_count, created_at, updated_at
		FROM posts
		WHERE id = ANY($1)
	`

	var rows []model.Post
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	byID := make(map[string]model.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	// Cached ids may be stale for a moment after a delete; skip misses.
	posts := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}

	return posts, nil
}

// List returns posts newest-first with optional tag filtering.
func (r *postRepository) List(ctx context.Context, offset, limit int, tags []string) ([]model.Post, error) {
	query := `
		SELECT id, title, message, creator, tags, like_count, created_at, updated_at
		FROM posts
	`
	args := []interface{}{}

	if len(tags) > 0 {
		query += ` WHERE tags && $1`
		args = append(args, pq.Array(tags))
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// Count returns the number of posts matching the tag filter.
func (r *postRepository) Count(ctx context.Context, tags []string) (int, error) {
	query := `SELECT COUNT(*) FROM posts`
	args := []interface{}{}

	if len(tags) > 0 {
		query += ` WHERE tags && $1`
		args = append(args, pq.Array(tags))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}

	return total, nil
}

// Update applies a partial update, leaving omitted fields untouched.
func (r *postRepository) Update(ctx context.Context, id string, req *model.UpdatePostRequest) (*model.Post, error) {
	query := `
		UPDATE posts
		SET title      = COALESCE($1, title),
		    message    = COALESCE($2, message),
		    tags       = COALESCE($3, tags),
		    updated_at = NOW()
		WHERE id = $4
		RETURNING id, title, message, creator, tags, like_count, created_at, updated_at
	`

	var tags interface{}
	if req.Tags != nil {
		tags = pq.Array(*req.Tags)
	}

	var post model.Post
	err := r.db.QueryRowxContext(ctx, query, req.Title, req.Message, tags, id).StructScan(&post)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return &post, nil
}

// Delete removes a post and returns the deleted row.
func (r *postRepository) Delete(ctx context.Context, id string) (*model.Post, error) {
	query := `
		DELETE FROM posts
		WHERE id = $1
		RETURNING id, title, message, creator, tags, like_count, created_at, updated_at
	`

	var post model.Post
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&post)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}

	return &post, nil
}

// DeleteAll removes every post and returns how many were deleted.
func (r *postRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts`)
	if err != nil {
		return 0, fmt.Errorf("delete all posts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return deleted, nil
}

// UpdateLikeCount applies delta to like_count in place, floored at 0.
// A single UPDATE keeps concurrent likes from losing increments; the floor
// lives in the same statement so the counter can never go negative.
func (r *postRepository) UpdateLikeCount(ctx context.Context, id string, delta int) (*model.Post, error) {
	query := `
		UPDATE posts
		SET like_count = GREATEST(like_count + $1, 0),
		    updated_at = NOW()
		WHERE id = $2
		RETURNING id, title, message, creator, tags, like_count, created_at, updated_at
	`

	var post model.Post
	err := r.db.QueryRowxContext(ctx, query, delta, id).StructScan(&post)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update like count: %w", err)
	}

	return &post, nil
}

// GetRecentPosts returns the newest post ids with created-at scores for
// warming the timeline cache.
func (r *postRepository) GetRecentPosts(ctx context.Context, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	defer rows.Close()

	var scores []cache.PostScore
	for rows.Next() {
		var row struct {
			ID        string       `db:"id"`
			CreatedAt sql.NullTime `db:"created_at"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan recent post: %w", err)
		}
		scores = append(scores, cache.PostScore{
			PostID:    row.ID,
			Timestamp: row.CreatedAt.Time.UnixMilli(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent posts: %w", err)
	}

	return scores, nil
}
