package model

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"regexp"
	"time"
)

// Records are addressed by 24-character lowercase hex identifiers:
// a 4-byte unix timestamp followed by 8 random bytes. The timestamp prefix
// keeps freshly generated ids roughly sortable by creation time.

// IDLength is the length of a well-formed identifier.
const IDLength = 24

var idPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ErrInvalidID is returned when an identifier is not a 24-character hex value.
var ErrInvalidID = errors.New("invalid id format")

// NewID generates a new record identifier.
func NewID() string {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(raw[4:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic("model: rand.Read: " + err.Error())
	}
	return hex.EncodeToString(raw[:])
}

// IsValidID reports whether id is a well-formed 24-character hex identifier.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}
