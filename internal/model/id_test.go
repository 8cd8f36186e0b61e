package model

import "testing"

func TestNewID(t *testing.T) {
	id := NewID()

	if len(id) != 24 {
		t.Fatalf("len(id) = %d, want 24", len(id))
	}
	if !IsValidID(id) {
		t.Errorf("generated ID %q should pass validation", id)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid lowercase", "64f1b2c3d4e5f60718293a4b", true},
		{"valid uppercase", "64F1B2C3D4E5F60718293A4B", true},
		{"too short", "64f1b2c3d4e5f60718293a4", false},
		{"too long", "64f1b2c3d4e5f60718293a4bb", false},
		{"non-hex characters", "64f1b2c3d4e5f60718293agz", false},
		{"empty", "", false},
		{"path traversal attempt", "../../../../etc/passwd..", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidID(tt.id); got != tt.want {
				t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
