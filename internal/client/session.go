// Package client provides a Go API client for the Dead Poets Society
// backend. Session state is an explicit object with an injected store
// rather than ambient global state: callers create a store, hand it to the
// client, and the client reads, updates, and clears it as the user logs in
// and out.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Session is the locally persisted copy of the current login: the bearer
// token, the username it belongs to, and which posts this client has liked.
// The liked set is a client-side convenience only; the server keeps no
// per-user like state.
type Session struct {
	Token      string   `json:"token"`
	Username   string   `json:"username"`
	LikedPosts []string `json:"likedPosts"`
}

// IsAuthenticated reports whether the session holds a token.
func (s *Session) IsAuthenticated() bool {
	return s.Token != ""
}

// HasLiked reports whether this client has liked the given post.
func (s *Session) HasLiked(postID string) bool {
	return slices.Contains(s.LikedPosts, postID)
}

// MarkLiked records a like for the given post.
func (s *Session) MarkLiked(postID string) {
	if !s.HasLiked(postID) {
		s.LikedPosts = append(s.LikedPosts, postID)
	}
}

// UnmarkLiked removes the like record for the given post.
func (s *Session) UnmarkLiked(postID string) {
	s.LikedPosts = slices.DeleteFunc(s.LikedPosts, func(id string) bool {
		return id == postID
	})
}

// SessionStore persists a Session across runs.
type SessionStore interface {
	// Load reads the stored session. A missing store yields an empty session.
	Load() (*Session, error)
	// Save persists the session.
	Save(s *Session) error
	// Clear removes the stored session.
	Clear() error
}

// FileStore is a SessionStore backed by a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed session store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the session file. A missing file is not an error.
func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &s, nil
}

// Save writes the session file, creating parent directories as needed.
// The file holds a bearer token, so it is not group/world readable.
func (f *FileStore) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
