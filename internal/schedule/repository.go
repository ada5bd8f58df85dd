package schedule

import "context"

// Repository defines persistence for weekly slots.
type Repository interface {
	// GetForUser retrieves all of a user's slots, ordered by day then
	// start time.
	GetForUser(ctx context.Context, userID string) ([]Slot, error)

	// ReplaceAllForUser atomically replaces the user's entire slot set.
	// There is deliberately no partial update.
	ReplaceAllForUser(ctx context.Context, userID string, slots []Slot) error

	// GetAllActive retrieves every active slot across all users, for
	// scheduler startup.
	GetAllActive(ctx context.Context) ([]Slot, error)
}
