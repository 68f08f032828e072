package store

import (
	"time"
)

// User represents a registered user row. The door controller updates
// LastSeen and AccessCount on every recognized entry; this service only
// creates and deletes rows.
type User struct {
	ID          int64
	UID         string
	Name        string
	CreatedAt   time.Time
	LastSeen    *time.Time
	AccessCount int
}

// AccessLog represents a single access log row written by the door
// controller. PersonName is nil for events without a recognized person.
type AccessLog struct {
	ID         int64
	Timestamp  time.Time
	EventType  string
	PersonName *string
}
