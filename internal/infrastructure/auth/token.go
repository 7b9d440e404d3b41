package auth

import (
	"errors"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated is returned for a missing, malformed, expired or
	// wrongly signed credential. Connections presenting one must be dropped.
	ErrUnauthenticated = errors.New("auth: invalid credential")

	// ErrServerMisconfigured is returned when the signing secret is not
	// configured. Callers must present it to clients exactly like
	// ErrUnauthenticated so configuration state does not leak.
	ErrServerMisconfigured = errors.New("auth: signing secret is not configured")
)

// Identity is the verified claim attached to a connection for its lifetime.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer credentials against a shared HMAC secret.
// Verification is local and stateless; the verifier never issues tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given secret. An empty secret is
// accepted at construction but fails closed on every Verify call.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// NewVerifierFromEnv reads the secret from the JWT_SECRET environment variable.
func NewVerifierFromEnv() *Verifier {
	return NewVerifier(strings.TrimSpace(os.Getenv("JWT_SECRET")))
}

// Verify parses and validates raw, returning the identity it asserts.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	if len(v.secret) == 0 {
		return nil, ErrServerMisconfigured
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
