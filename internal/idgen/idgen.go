// Package idgen provides the engine's identifier generator contract
// and a UUID-backed default implementation.
package idgen

import "github.com/google/uuid"

// Generator produces unique message identifiers. The engine relies on
// generator-side uniqueness for its prefix-match correlation; it never
// checks for collisions itself.
type Generator interface {
	Generate() string
}

// UUIDGenerator generates RFC 4122 version 4 UUIDs.
type UUIDGenerator struct{}

// Generate returns a new random UUID string.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}
