package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hostel_hub/internal/adapters/observability"
	"hostel_hub/internal/domain"
)

// NewAccount contains the information needed to sign up.
type NewAccount struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,password,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name" validate:"required,min=2,max=120"`
	Role            string `json:"role" validate:"required,oneof=student agent business"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Account struct {
	User    domain.User    `json:"user"`
	Profile domain.Profile `json:"profile"`
}

type AuthService struct {
	users  domain.UserRepository
	idp    domain.IdentityProvider
	tokens *TokenIssuer
	now    func() time.Time
}

func NewAuthService(users domain.UserRepository, idp domain.IdentityProvider, tokens *TokenIssuer) *AuthService {
	return &AuthService{users: users, idp: idp, tokens: tokens, now: time.Now}
}

func (s *AuthService) SignUp(ctx context.Context, na NewAccount) (Session, error) {
	na.Email = cleanString(na.Email, true)
	na.FullName = cleanString(na.FullName)
	na.Role = cleanString(na.Role, true)
	if err := validateStruct(na); err != nil {
		return Session{}, err
	}
	role, _ := domain.ParseRole(na.Role)

	// fail fast on a known email before touching the provider
	if _, err := s.users.GetUserByEmail(ctx, na.Email); err == nil {
		return Session{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return Session{}, fmt.Errorf("looking up email: %w", err)
	}

	uid, err := s.idp.SignUp(ctx, na.Email, na.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.now().UTC()
	u := domain.User{ID: uid, Email: na.Email, Role: role, CreatedAt: now}
	p := domain.Profile{UserID: uid, Role: role, FullName: na.FullName, UpdatedAt: now}
	if err := s.users.CreateUser(ctx, u, p); err != nil {
		return Session{}, fmt.Errorf("storing user: %w", err)
	}
	observability.ObserveSignup(string(role))
	log.Info().Str("user_id", uid).Str("role", string(role)).Msg("account created")

	return s.tokens.Issue(u)
}

func (s *AuthService) Login(ctx context.Context, c Credentials) (Session, error) {
	c.Email = cleanString(c.Email, true)
	if err := validateStruct(c); err != nil {
		return Session{}, err
	}
	uid, err := s.idp.SignIn(ctx, c.Email, c.Password)
	if err != nil {
		return Session{}, err
	}
	// the role always comes from our store, never from the request
	u, err := s.users.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("uid", uid).Msg("identity without a stored user")
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("loading user: %w", err)
	}
	return s.tokens.Issue(u)
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = cleanString(email, true)
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError(domain.FieldError{Field: "email", Message: "email must be a valid email address"})
	}
	if err := s.idp.SendPasswordReset(ctx, email); err != nil {
		log.Warn().Err(err).Msg("password reset request failed")
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, id domain.Identity) (Account, error) {
	if err := Authorize(&id); err != nil {
		return Account{}, err
	}
	u, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return Account{}, err
	}
	p, err := s.users.GetProfile(ctx, id.UserID)
	if err != nil {
		return Account{}, err
	}
	return Account{User: u, Profile: p}, nil
}

// Identify resolves a raw session token.
func (s *AuthService) Identify(token string) (domain.Identity, error) {
	return s.tokens.Parse(token)
}
