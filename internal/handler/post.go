package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"deadpoets/internal/httputil"
	"deadpoets/internal/model"
	"deadpoets/internal/service"
	"deadpoets/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create handles POST /api/posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), claims, &req)
	if err != nil {
		if isPostValidationError(err) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		log.Printf("[ERROR] Create post handler: user=%s err=%v", claims.Username, err)
		httputil.WriteInternalError(w, "Failed to create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Post created successfully",
		"post":    post,
	})
}

// List handles GET /api/posts
// Returns posts newest-first with pagination and optional tag filtering.
// Query params: page=1, limit=10, tags=poetry (repeatable or comma-separated)
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil {
		limit = 10
	}

	var tags []string
	for _, raw := range query["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	posts, pagination, err := h.postService.List(r.Context(), page, limit, tags)
	if err != nil {
		log.Printf("[ERROR] List posts handler: %v", err)
		httputil.WriteInternalError(w, "Failed to retrieve posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PostListResponse{
		Message:    "Posts retrieved successfully",
		Posts:      posts,
		Pagination: pagination,
	})
}

// GetByID handles GET /api/posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.postService.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidID):
			httputil.WriteBadRequest(w, "Invalid post ID format")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			log.Printf("[ERROR] Get post handler: post=%s err=%v", id, err)
			httputil.WriteInternalError(w, "Failed to retrieve post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post retrieved successfully",
		"post":    post,
	})
}

// Update handles PATCH /api/posts/{id}
// Applies a partial update to a post owned by the caller.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), id, claims, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidID):
			httputil.WriteBadRequest(w, "Invalid post ID format")
		case errors.Is(err, model.ErrNoFieldsToUpdate):
			httputil.WriteBadRequest(w, "No fields to update")
		case isPostValidationError(err):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only edit your own posts")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			log.Printf("[ERROR] Update post handler: user=%s post=%s err=%v", claims.Username, id, err)
			httputil.WriteInternalError(w, "Failed to update post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// Delete handles DELETE /api/posts/{id}
// Removes a post owned by the caller and returns the deleted post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	post, err := h.postService.Delete(r.Context(), id, claims)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidID):
			httputil.WriteBadRequest(w, "Invalid post ID format")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			log.Printf("[ERROR] Delete post handler: user=%s post=%s err=%v", claims.Username, id, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post deleted successfully",
		"post":    post,
	})
}

// Like handles PATCH /api/posts/{id}/like
// Body: {"action": "like"} or {"action": "unlike"}
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Like(r.Context(), id, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidID):
			httputil.WriteBadRequest(w, "Invalid post ID format")
		case errors.Is(err, model.ErrInvalidAction):
			httputil.WriteBadRequest(w, "Invalid action. Use 'like' or 'unlike'")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		default:
			log.Printf("[ERROR] Like post handler: post=%s err=%v", id, err)
			httputil.WriteInternalError(w, "Failed to update post likes")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post " + req.Action + "d successfully",
		"post":    post,
	})
}

// DeleteAll handles DELETE /api/posts
// Removes every post. Destructive; requires authentication but no role check.
func (h *PostHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.postService.DeleteAll(r.Context())
	if err != nil {
		log.Printf("[ERROR] Delete all posts handler: %v", err)
		httputil.WriteInternalError(w, "Failed to delete all posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "All posts deleted successfully",
		"deletedCount": deleted,
	})
}

// isPostValidationError reports whether err maps to a 400 response.
func isPostValidationError(err error) bool {
	return errors.Is(err, model.ErrInvalidTitle) ||
		errors.Is(err, model.ErrMessageTooShort) ||
		errors.Is(err, model.ErrTooManyTags)
}
