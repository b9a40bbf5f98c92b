// Package auth guards the dashboard with signed staff tokens. Tokens are
// minted out of band (the admin CLI can issue them) and presented either as
// a bearer header or a session cookie.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers malformed, expired, or mis-signed tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrNotStaff rejects tokens without the staff role.
	ErrNotStaff = errors.New("auth: staff role required")
)

// RoleStaff is the role claim required for dashboard access.
const RoleStaff = "staff"

// Config holds token signing configuration.
type Config struct {
	Secret      []byte
	TokenExpiry time.Duration
	Issuer      string
}

// DefaultConfig returns an eight hour staff session signed with the secret.
func DefaultConfig(secret string) Config {
	return Config{
		Secret:      []byte(secret),
		TokenExpiry: 8 * time.Hour,
		Issuer:      "accounts-dashboard",
	}
}

// Claims is the JWT payload carried by staff sessions.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

// Staff identifies the authenticated dashboard user.
type Staff struct {
	ID   uuid.UUID
	Name string
}

// Service issues and validates staff tokens.
type Service struct {
	config Config
	now    func() time.Time
}

// NewService builds a token service from the config.
func NewService(config Config) *Service {
	if config.TokenExpiry <= 0 {
		config.TokenExpiry = 8 * time.Hour
	}
	return &Service{config: config, now: time.Now}
}

// IssueToken mints a signed staff token for the user.
func (s *Service) IssueToken(userID uuid.UUID, name string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
			Issuer:    s.config.Issuer,
		},
		UserID: userID,
		Name:   name,
		Role:   RoleStaff,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken parses a token and returns the staff identity it carries.
func (s *Service) ValidateToken(tokenString string) (*Staff, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.config.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleStaff {
		return nil, ErrNotStaff
	}
	return &Staff{ID: claims.UserID, Name: claims.Name}, nil
}
