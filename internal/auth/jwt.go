// Package auth issues and verifies the HS256 tokens that carry a user's
// identity to the HTTP surface.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/RubeHicksCube/Djournal/internal/constants"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token signing secret is empty")
)

// Claims is the JWT payload, holding the identity plus registered claims.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Service{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken signs a token for id that expires after the service TTL.
func (s *Service) GenerateToken(id models.Identity) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", ErrInvalidToken)
	}
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := &Claims{
		UserID: id.UserID,
		Name:   id.DisplayName,
		Admin:  id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    constants.AppName,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature and expiry and returns the identity.
func (s *Service) ValidateToken(tokenString string) (models.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return models.Identity{}, fmt.Errorf("%w: token is malformed", ErrInvalidToken)
			case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
				return models.Identity{}, fmt.Errorf("%w: token is expired or not active yet", ErrInvalidToken)
			}
		}
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{
		UserID:      claims.UserID,
		DisplayName: claims.Name,
		IsAdmin:     claims.Admin,
	}, nil
}
