package repositories

import "github.com/google/uuid"

// parseUUID recovers a uuid.UUID from a stored row, per the §3 Identifier
// type. A malformed value can only come from a corrupted row, not normal
// operation, so it is reported as the zero UUID rather than panicking the
// bootstrap hydration loop.
func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}
	}
	return id
}
