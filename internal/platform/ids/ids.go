package ids

import "github.com/google/uuid"

// New returns a fresh identifier for a stored entity.
func New() string {
	return uuid.NewString()
}
