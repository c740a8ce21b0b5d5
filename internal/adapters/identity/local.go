package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"hostel_hub/internal/domain"
)

// Local keeps bcrypt password hashes in the application database. It is the
// default provider for development and self-hosted installs.
type Local struct {
	store domain.CredentialStore
	cost  int
	now   func() time.Time
}

func NewLocal(store domain.CredentialStore, cost int) *Local {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Local{store: store, cost: cost, now: time.Now}
}

func (l *Local) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return "", err
	}
	c := domain.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    l.now().UTC(),
	}
	if err := l.store.SaveCredential(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", domain.ErrEmailTaken
		}
		return "", err
	}
	return c.UID, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (string, error) {
	c, err := l.store.GetCredential(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return c.UID, nil
}

// SendPasswordReset has no mail flow of its own; requests are only logged.
func (l *Local) SendPasswordReset(ctx context.Context, email string) error {
	log.Info().Str("email", email).Msg("password reset requested (local provider)")
	return nil
}
