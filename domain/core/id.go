package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SessionID ID
	BatchID   ID
	UserID    ID
)

// String conversions for domain IDs
func (id SessionID) String() string { return ID(id).String() }
func (id BatchID) String() string   { return ID(id).String() }
func (id UserID) String() string    { return ID(id).String() }

// AnonymousUser is recorded when a submission arrives without an identity.
const AnonymousUser UserID = "anonymous"

// NewSessionID returns a random (v4) session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// NewBatchID returns a time-ordered identifier for one submit_all call.
func NewBatchID() BatchID {
	return BatchID(NewID())
}

// ParseSessionID validates a session identifier read from a cookie
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("session ID is not a UUID: %w", err)
	}
	return SessionID(s), nil
}

// ParseUserID trims and validates an opaque user identifier
func ParseUserID(s string) (UserID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	return UserID(trimmed), nil
}
