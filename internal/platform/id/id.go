// Package id generates compact unique identifiers for meetings, agenda
// items, events, and dispatches.
//
// Identifiers are UUIDv4 values encoded as lowercase unpadded base32,
// which keeps them URL-safe and fixed at 26 characters.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var base32Encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new 26-character identifier.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(base32Encoding.EncodeToString(u[:])), nil
}
