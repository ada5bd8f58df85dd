package schedule

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository for tests
// and local development.
type MemoryRepository struct {
	mu     sync.RWMutex
	slots  map[string][]Slot // userID -> slots
	nextID int64
}

// NewMemoryRepository creates an empty in-memory slot repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[string][]Slot), nextID: 1}
}

// GetForUser retrieves all of a user's slots.
func (r *MemoryRepository) GetForUser(_ context.Context, userID string) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Slot, len(r.slots[userID]))
	copy(out, r.slots[userID])
	sortSlots(out)
	return out, nil
}

// ReplaceAllForUser atomically replaces the user's slot set.
func (r *MemoryRepository) ReplaceAllForUser(_ context.Context, userID string, slots []Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]Slot, len(slots))
	for i, s := range slots {
		s.UserID = userID
		s.ID = r.nextID
		r.nextID++
		stored[i] = s
	}
	r.slots[userID] = stored
	return nil
}

// GetAllActive retrieves every active slot across all users.
func (r *MemoryRepository) GetAllActive(_ context.Context) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Slot
	for _, userSlots := range r.slots {
		for _, s := range userSlots {
			if s.Active {
				out = append(out, s)
			}
		}
	}
	sortSlots(out)
	return out, nil
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].UserID != slots[j].UserID {
			return slots[i].UserID < slots[j].UserID
		}
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}
