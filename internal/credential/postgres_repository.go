package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL credential repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a user's stored credential.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Credential, error) {
	query := `
		SELECT user_id, timeclock_user, timeclock_secret
		FROM users
		WHERE user_id = $1
	`

	var cred Credential
	err := r.pool.QueryRow(ctx, query, userID).Scan(&cred.UserID, &cred.Username, &cred.Secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &cred, nil
}

// Save upserts a user's credential.
func (r *PostgresRepository) Save(ctx context.Context, cred *Credential) error {
	query := `
		INSERT INTO users (user_id, timeclock_user, timeclock_secret)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET timeclock_user = EXCLUDED.timeclock_user,
		              timeclock_secret = EXCLUDED.timeclock_secret
	`

	if _, err := r.pool.Exec(ctx, query, cred.UserID, cred.Username, cred.Secret); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Delete removes a user's credential.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}
