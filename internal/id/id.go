// Package id generates entity identifiers.
package id

import "github.com/google/uuid"

// New returns a time-ordered UUIDv7 string. If the v7 generator fails it
// falls back to a random v4.
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
