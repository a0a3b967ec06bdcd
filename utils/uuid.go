package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a random identifier for auctions and requests
func GenerateID() string {
	return uuid.New().String()
}

// GenerateOrderedID returns a time-ordered identifier for ledger rows and events.
// IDs created later sort after earlier ones.
func GenerateOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
