package credential

import "context"

// Repository defines persistence for credentials. Secrets cross this
// interface in their encrypted form.
type Repository interface {
	// Get retrieves a user's stored credential. Returns ErrNotFound when
	// the user has none.
	Get(ctx context.Context, userID string) (*Credential, error)

	// Save upserts a user's credential.
	Save(ctx context.Context, cred *Credential) error

	// Delete removes a user's credential.
	Delete(ctx context.Context, userID string) error
}
