package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
)

// Identity is the result of verifying a bearer credential.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity holds the elevated role.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

// CanAccess is the visibility predicate used everywhere role scoping
// applies: admins see everything, other identities only their own resources.
func (id Identity) CanAccess(ownerID string) bool {
	return id.IsAdmin() || id.UserID == ownerID
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens carrying a subject and role.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a token service using HMAC-SHA256.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token for the given user.
func (s *TokenService) Sign(userID, role string) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token and returns the identity it names.
func (s *TokenService) Verify(token string) (Identity, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Identity{}, apperror.Authentication("Invalid or expired token")
	}
	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

// StripBearer removes an optional "Bearer " prefix from a credential value.
func StripBearer(value string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "Bearer "))
}
