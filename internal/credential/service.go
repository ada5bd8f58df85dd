package credential

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service stores and retrieves credentials, encrypting secrets at rest.
type Service struct {
	repo   Repository
	cipher *Cipher
	logger zerolog.Logger
}

// NewService creates a credential service.
func NewService(repo Repository, cipher *Cipher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cipher: cipher, logger: logger}
}

// Save encrypts the secret and upserts the credential.
func (s *Service) Save(ctx context.Context, userID, username, secret string) error {
	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypting secret: %w", err)
	}

	if err := s.repo.Save(ctx, &Credential{
		UserID:   userID,
		Username: username,
		Secret:   encrypted,
	}); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("credential saved")
	return nil
}

// Get retrieves and decrypts a user's credential. Returns ErrNotFound for
// users who never onboarded.
func (s *Service) Get(ctx context.Context, userID string) (*Credential, error) {
	cred, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, err := s.cipher.Decrypt(cred.Secret)
	if err != nil {
		return nil, fmt.Errorf("decrypting secret for %s: %w", userID, err)
	}

	return &Credential{
		UserID:   cred.UserID,
		Username: cred.Username,
		Secret:   secret,
	}, nil
}

// Delete removes a user's credential.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}
