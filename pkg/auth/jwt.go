package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Purpose scopes a token so that, for example, a password-reset link cannot
// be replayed as an access token.
type Purpose string

const (
	PurposeAccess      Purpose = "access"
	PurposeReset       Purpose = "password_reset"
	PurposeVerifyEmail Purpose = "verify_email"
)

// ErrInvalidToken is returned for any token that fails parsing, signature,
// expiry or purpose checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims holds the typed JWT payload. The subject id is RegisteredClaims.Subject.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	Email   string  `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	ttl    map[Purpose]time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer. accessTTL applies to access tokens; reset and
// verification links live for one hour and three days respectively.
func NewSigner(secret string, accessTTL time.Duration) *Signer {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl: map[Purpose]time.Duration{
			PurposeAccess:      accessTTL,
			PurposeReset:       time.Hour,
			PurposeVerifyEmail: 72 * time.Hour,
		},
		now: time.Now,
	}
}

// WithClock replaces the signer's clock. Used by tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Issue signs a token for subject with the given purpose.
func (s *Signer) Issue(subject string, purpose Purpose, email string) (string, error) {
	now := s.now()
	claims := Claims{
		Purpose: purpose,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl[purpose])),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return signed, nil
}

// Parse validates t and checks that it was issued for purpose.
func (s *Signer) Parse(t string, purpose Purpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: wrong purpose %q", ErrInvalidToken, claims.Purpose)
	}
	return claims, nil
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>"
// header value, or "" when the header is absent or uses another scheme.
func ExtractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
