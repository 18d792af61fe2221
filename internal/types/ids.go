package types

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotID represents a UUIDv7 intake snapshot identifier.
type SnapshotID string

// NewSnapshotID generates a UUIDv7 snapshot identifier.
// Time-ordered IDs keep snapshots of one project clustered by creation.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSnapshotID() SnapshotID {
	return SnapshotID(uuid.Must(uuid.NewV7()).String())
}

// ParseSnapshotID validates and converts a string to SnapshotID.
func ParseSnapshotID(s string) (SnapshotID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return SnapshotID(s), nil
}

// ProjectID represents a UUIDv7 project identifier.
type ProjectID string

// NewProjectID generates a UUIDv7 project identifier.
func NewProjectID() ProjectID {
	return ProjectID(uuid.Must(uuid.NewV7()).String())
}

// ParseProjectID validates and converts a string to ProjectID.
func ParseProjectID(s string) (ProjectID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return ProjectID(s), nil
}

// SnapshotIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func SnapshotIDTime(id SnapshotID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
