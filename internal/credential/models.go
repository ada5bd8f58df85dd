// Package credential stores the external timeclock credentials users hand
// over during onboarding. Secrets are encrypted before they touch storage
// and only decrypted at the moment of use.
package credential

import "errors"

// Credential errors.
var (
	// ErrNotFound means the user never completed onboarding. Callers
	// treat this as an expected steady state, not a failure.
	ErrNotFound = errors.New("credential not found")
)

// Credential is a user's login for the external timeclock site. Secret is
// plaintext only in memory; the repository layer holds the encrypted form.
type Credential struct {
	UserID   string
	Username string
	Secret   string
}
