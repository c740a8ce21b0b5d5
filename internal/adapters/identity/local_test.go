package identity_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hostel_hub/internal/adapters/identity"
	"hostel_hub/internal/domain"
)

type fakeCreds struct {
	mu sync.Mutex
	m  map[string]domain.Credential
}

func (f *fakeCreds) SaveCredential(_ context.Context, c domain.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = map[string]domain.Credential{}
	}
	if _, ok := f.m[c.Email]; ok {
		return domain.ErrConflict
	}
	f.m[c.Email] = c
	return nil
}

func (f *fakeCreds) GetCredential(_ context.Context, email string) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[email]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return c, nil
}

func TestLocal_SignUpSignIn(t *testing.T) {
	store := &fakeCreds{}
	l := identity.NewLocal(store, bcrypt.MinCost)
	ctx := context.Background()

	uid, err := l.SignUp(ctx, " Ann@Example.com ", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, uid)
	assert.NotEqual(t, []byte("correct-horse"), store.m["ann@example.com"].PasswordHash)

	got, err := l.SignIn(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	_, err = l.SignIn(ctx, "ann@example.com", "wrong-pass")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, err = l.SignIn(ctx, "nobody@example.com", "correct-horse")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLocal_DuplicateEmail(t *testing.T) {
	l := identity.NewLocal(&fakeCreds{}, bcrypt.MinCost)
	ctx := context.Background()
	_, err := l.SignUp(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	_, err = l.SignUp(ctx, "ann@example.com", "other-pass1")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}
