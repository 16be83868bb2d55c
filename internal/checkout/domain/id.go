package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID returns a 32-character hex identifier for carts items and orders.
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
