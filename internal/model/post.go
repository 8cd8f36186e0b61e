package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post represents a published poem.
type Post struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Creator   string         `db:"creator" json:"creator"` // username at creation time, denormalized
	Tags      pq.StringArray `db:"tags" json:"tags"`
	LikeCount int            `db:"like_count" json:"likeCount"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// Post content constraints, mirrored by the posts table.
const (
	MinTitleLength   = 3
	MaxTitleLength   = 100
	MinMessageLength = 10
	MaxTags          = 5
)

// Like actions accepted by the like endpoint.
const (
	ActionLike   = "like"
	ActionUnlike = "unlike"
)

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Tags    []string `json:"tags"`
}

// UpdatePostRequest carries a partial post update. Nil means "leave as is".
type UpdatePostRequest struct {
	Title   *string   `json:"title"`
	Message *string   `json:"message"`
	Tags    *[]string `json:"tags"`
}

// LikeRequest carries the like/unlike action.
type LikeRequest struct {
	Action string `json:"action"`
}

// Pagination describes one page of a post listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// PostListResponse is the paginated list response.
type PostListResponse struct {
	Message    string     `json:"message"`
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

var (
	// ErrPostNotFound is returned when a post cannot be found
	ErrPostNotFound = errors.New("post not found")

	// ErrNotPostOwner is returned when a user edits or deletes someone else's post
	ErrNotPostOwner = errors.New("not the owner of this post")

	// ErrInvalidTitle is returned when a title fails validation
	ErrInvalidTitle = errors.New("title must be 3-100 characters long")

	// ErrMessageTooShort is returned when the post body is under 10 characters
	ErrMessageTooShort = errors.New("message must be at least 10 characters long")

	// ErrTooManyTags is returned when a post carries more than 5 tags
	ErrTooManyTags = errors.New("a post can have maximum 5 tags")

	// ErrInvalidAction is returned when the like action is neither "like" nor "unlike"
	ErrInvalidAction = errors.New("invalid action, use 'like' or 'unlike'")
)
