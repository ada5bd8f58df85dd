package schedule

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL slot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetForUser retrieves all of a user's slots.
func (r *PostgresRepository) GetForUser(ctx context.Context, userID string) ([]Slot, error) {
	query := `
		SELECT id, user_id, day_of_week, start_time, end_time, is_active
		FROM time_slots
		WHERE user_id = $1
		ORDER BY day_of_week, start_time
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying slots: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// ReplaceAllForUser deletes and re-inserts the user's slots in one
// transaction.
func (r *PostgresRepository) ReplaceAllForUser(ctx context.Context, userID string, slots []Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM time_slots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting old slots: %w", err)
	}

	for _, s := range slots {
		_, err := tx.Exec(ctx, `
			INSERT INTO time_slots (user_id, day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, s.DayOfWeek, s.StartTime, s.EndTime, s.Active)
		if err != nil {
			return fmt.Errorf("inserting slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetAllActive retrieves every active slot across all users.
func (r *PostgresRepository) GetAllActive(ctx context.Context) ([]Slot, error) {
	query := `
		SELECT id, user_id, day_of_week, start_time, end_time, is_active
		FROM time_slots
		WHERE is_active = TRUE
		ORDER BY user_id, day_of_week, start_time
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying active slots: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSlots(rows pgxRows) ([]Slot, error) {
	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.UserID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Active); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}
	return slots, nil
}
