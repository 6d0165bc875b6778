package id

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns a random UUID as 32 lowercase hex characters. Loans,
// schedule items, transactions and payment intents are all keyed this way.
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsID32 reports whether s has the NewID32 shape.
func IsID32(s string) bool {
	if len(s) != 32 || strings.ToLower(s) != s {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
