package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"deadpoets/internal/model"
)

// memoryStore is an in-memory SessionStore for tests.
type memoryStore struct {
	session *Session
	saves   int
}

func (m *memoryStore) Load() (*Session, error) {
	if m.session == nil {
		return &Session{}, nil
	}
	return m.session, nil
}

func (m *memoryStore) Save(s *Session) error {
	m.session = s
	m.saves++
	return nil
}

func (m *memoryStore) Clear() error {
	m.session = nil
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memoryStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := &memoryStore{}
	c, err := New(srv.URL, store)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, store
}

func TestClient_LoginStoresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode login request: %v", err)
		}
		if req.Email != "walt@deadpoets.io" {
			t.Errorf("email = %q, want %q", req.Email, "walt@deadpoets.io")
		}
		json.NewEncoder(w).Encode(model.AuthResponse{
			Message: "Login successful",
			User:    &model.User{ID: "64f1b2c3d4e5f60718293a4b", Username: "whitman"},
			Token:   "token-123",
		})
	})

	c, store := newTestClient(t, mux)

	user, err := c.Login(context.Background(), "walt@deadpoets.io", "ocaptain")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "whitman" {
		t.Errorf("username = %q, want %q", user.Username, "whitman")
	}

	if store.session == nil || store.session.Token != "token-123" {
		t.Fatal("session token should be persisted after login")
	}
	if store.session.Username != "whitman" {
		t.Errorf("session username = %q, want %q", store.session.Username, "whitman")
	}
	if !c.Session().IsAuthenticated() {
		t.Error("client should be authenticated after login")
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": &model.User{Username: "whitman"},
		})
	})

	c, store := newTestClient(t, mux)
	c.session = &Session{Token: "token-123", Username: "whitman"}
	store.session = c.session

	if _, err := c.Profile(context.Background()); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer token-123")
	}
}

func TestClient_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
	})

	c, _ := newTestClient(t, mux)

	_, err := c.Login(context.Background(), "walt@deadpoets.io", "wrong")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("message = %q, want the server's error body", apiErr.Message)
	}
}

func TestClient_ToggleLike(t *testing.T) {
	var actions []string
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		var req model.LikeRequest
		json.NewDecoder(r.Body).Decode(&req)
		actions = append(actions, req.Action)

		count := 1
		if req.Action == model.ActionUnlike {
			count = 0
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"post": &model.Post{ID: r.PathValue("id"), LikeCount: count},
		})
	})

	c, store := newTestClient(t, mux)
	c.session = &Session{Token: "token-123", Username: "whitman"}
	store.session = c.session

	const postID = "64f1b2c3d4e5f60718293a4c"

	// First toggle likes the post
	post, liked, err := c.ToggleLike(context.Background(), postID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !liked {
		t.Error("first toggle should report liked=true")
	}
	if post.LikeCount != 1 {
		t.Errorf("likeCount = %d, want 1", post.LikeCount)
	}
	if !store.session.HasLiked(postID) {
		t.Error("session should remember the liked post")
	}

	// Second toggle unlikes it
	post, liked, err = c.ToggleLike(context.Background(), postID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if liked {
		t.Error("second toggle should report liked=false")
	}
	if post.LikeCount != 0 {
		t.Errorf("likeCount = %d, want 0", post.LikeCount)
	}
	if store.session.HasLiked(postID) {
		t.Error("session should forget the unliked post")
	}

	want := []string{model.ActionLike, model.ActionUnlike}
	if len(actions) != 2 || actions[0] != want[0] || actions[1] != want[1] {
		t.Errorf("actions = %v, want %v", actions, want)
	}
}

func TestClient_LogoutClearsSession(t *testing.T) {
	c, store := newTestClient(t, http.NewServeMux())
	c.session = &Session{Token: "token-123", Username: "whitman", LikedPosts: []string{"64f1b2c3d4e5f60718293a4c"}}
	store.session = c.session

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if c.Session().IsAuthenticated() {
		t.Error("client should not be authenticated after logout")
	}
	if store.session != nil {
		t.Error("store should be cleared after logout")
	}
}

func TestFileStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	// Missing file loads an empty session
	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("empty session should not be authenticated")
	}

	s.Token = "token-123"
	s.Username = "whitman"
	s.MarkLiked("64f1b2c3d4e5f60718293a4c")
	if err := store.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Token != "token-123" || loaded.Username != "whitman" {
		t.Errorf("loaded session = %+v, want the saved values", loaded)
	}
	if !loaded.HasLiked("64f1b2c3d4e5f60718293a4c") {
		t.Error("liked posts should survive the roundtrip")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	s, err = store.Load()
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("cleared store should load an empty session")
	}
}
