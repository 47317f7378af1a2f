// ===============================
// internal/id/id.go - Opaque Entity ID Generation
// ===============================

package id

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	length   = 8
)

// New returns a short random opaque ID (8 chars, lowercase alphanumeric).
// Uniqueness is probabilistic; the storage layer's primary key constraint
// is the backstop, and callers retry generation on a key collision.
func New() string {
	id, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		// gonanoid only fails when the OS entropy source does
		panic(err)
	}
	return id
}
