package utils

import "github.com/google/uuid"

// GenerateID returns a random identifier for log entries and batch runs.
func GenerateID() string {
	return uuid.NewString()
}
