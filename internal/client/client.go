package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"deadpoets/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client is an API client holding one session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	store      SessionStore
	session    *Session
}

// New creates a client and loads the session from the given store.
func New(baseURL string, store SessionStore) (*Client, error) {
	session, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		session:    session,
	}, nil
}

// Session returns the current session.
func (c *Client) Session() *Session {
	return c.session
}

// Register creates a new account and signs the session in with the
// returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.User, c.signIn(resp.User.Username, resp.Token)
}

// Login authenticates and signs the session in with the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.User, c.signIn(resp.User.Username, resp.Token)
}

// Logout clears the session. Tokens are stateless, so this is purely
// client-side; the old token stays valid until it expires.
func (c *Client) Logout() error {
	c.session = &Session{}
	return c.store.Clear()
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var resp struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfile applies username/email changes and keeps the session's
// username in sync.
func (c *Client) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	var resp struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/auth/profile", req, &resp); err != nil {
		return nil, err
	}

	c.session.Username = resp.User.Username
	if err := c.store.Save(c.session); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ChangePassword changes the account password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.do(ctx, http.MethodPatch, "/api/auth/change-password", model.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, nil)
}

// DeleteAccount deletes the account and clears the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/auth/profile", nil, nil); err != nil {
		return err
	}
	return c.Logout()
}

// VerifyToken asks the server whether the session token is still valid.
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return false, nil
		}
		return false, err
	}
	return resp.Valid, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(ctx context.Context, title, message string, tags []string) (*model.Post, error) {
	var resp struct {
		Post *model.Post `json:"post"`
	}
	err := c.do(ctx, http.MethodPost, "/api/posts", model.CreatePostRequest{
		Title:   title,
		Message: message,
		Tags:    tags,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// ListPosts fetches one page of posts, newest first.
func (c *Client) ListPosts(ctx context.Context, page, limit int, tags []string) ([]model.Post, model.Pagination, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if len(tags) > 0 {
		params.Set("tags", strings.Join(tags, ","))
	}

	path := "/api/posts"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp model.PostListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, model.Pagination{}, err
	}
	return resp.Posts, resp.Pagination, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var resp struct {
		Post *model.Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// UpdatePost applies a partial update to one of the user's posts.
func (c *Client) UpdatePost(ctx context.Context, id string, req model.UpdatePostRequest) (*model.Post, error) {
	var resp struct {
		Post *model.Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/posts/"+id, req, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// DeletePost deletes one of the user's posts.
func (c *Client) DeletePost(ctx context.Context, id string) (*model.Post, error) {
	var resp struct {
		Post *model.Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/posts/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// ToggleLike likes a post this client has not liked yet, or unlikes one it
// has, and records the new state in the session. The server keeps only the
// counter; which action to send is this client's call.
func (c *Client) ToggleLike(ctx context.Context, id string) (*model.Post, bool, error) {
	action := model.ActionLike
	if c.session.HasLiked(id) {
		action = model.ActionUnlike
	}

	var resp struct {
		Post *model.Post `json:"post"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/posts/"+id+"/like", model.LikeRequest{Action: action}, &resp)
	if err != nil {
		return nil, false, err
	}

	liked := action == model.ActionLike
	if liked {
		c.session.MarkLiked(id)
	} else {
		c.session.UnmarkLiked(id)
	}
	if err := c.store.Save(c.session); err != nil {
		return nil, false, err
	}

	return resp.Post, liked, nil
}

// DeleteAllPosts removes every post on the server.
func (c *Client) DeleteAllPosts(ctx context.Context) (int64, error) {
	var resp struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/posts", nil, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// signIn stores a fresh token/username pair in the session.
func (c *Client) signIn(username, token string) error {
	c.session.Token = token
	c.session.Username = username
	return c.store.Save(c.session)
}

// do sends one request, attaching the bearer token when the session has
// one, and decodes either the success payload or the error body.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.IsAuthenticated() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
