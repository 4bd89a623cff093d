package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the base identifier type for all domain entities
type ID string

// NewID generates a new time-ordered unique identifier
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to random UUID if V7 generation fails
		return ID(uuid.New().String())
	}
	return ID(id.String())
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsEmpty() bool {
	return string(id) == ""
}

// Typed identifiers for the main entity kinds
type (
	RunID     ID
	SessionID ID
)

func NewRunID() RunID {
	return RunID(NewID())
}

func NewSessionID() SessionID {
	return SessionID(NewID())
}

func (id RunID) String() string {
	return string(id)
}

func (id SessionID) String() string {
	return string(id)
}

// ParseSessionID validates and converts a raw string into a SessionID
func ParseSessionID(s string) (SessionID, error) {
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("session ID is not a valid UUID: %w", err)
	}
	return SessionID(s), nil
}
