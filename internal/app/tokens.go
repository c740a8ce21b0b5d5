package app

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"hostel_hub/internal/domain"
)

const tokenIssuer = "hostel_hub"

// Claims are the session claims carried by the JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(u domain.User) (Session, error) {
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: u.Email,
		Role:  u.Role,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Session{}, fmt.Errorf("signing token: %w", err)
	}
	return Session{Token: ss, ExpiresAt: exp, User: u}, nil
}

// Parse validates the token and returns the identity it carries.
// Every failure is reported as domain.ErrUnauthenticated.
func (t *TokenIssuer) Parse(raw string) (domain.Identity, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return t.secret, nil })
	if err != nil || !tok.Valid {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
