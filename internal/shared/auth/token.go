package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind tags a credential as access or refresh. The two are never
// interchangeable; Validate checks the tag, not the call site.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrExpired   = errors.New("token expired")
	ErrWrongKind = errors.New("token kind mismatch")
	ErrMalformed = errors.New("token malformed")
)

// Claims is the identity carried by a validated credential.
type Claims struct {
	Subject string // user email
	OwnerID string // user id
	Kind    Kind
}

type tokenClaims struct {
	OwnerID string `json:"uid"`
	Kind    string `json:"kind"`
	jwt.RegisteredClaims
}

// Codec issues and validates signed, expiring credentials.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec builds a Codec from the configured secret and TTLs.
// In production an empty secret is an error; elsewhere a dev secret is used.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration, env string) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if env == "production" {
			return nil, errors.New("JWT_SECRET required in production")
		}
		secret = "dev-secret"
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue signs a credential of the given kind expiring at now+ttl.
func (c *Codec) Issue(kind Kind, subject, ownerID string, ttl time.Duration) (string, error) {
	if subject == "" || ownerID == "" {
		return "", errors.New("subject and owner id are required")
	}
	now := time.Now().UTC()
	claims := tokenClaims{
		OwnerID: ownerID,
		Kind:    string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess signs an access credential with the configured access TTL.
func (c *Codec) IssueAccess(subject, ownerID string) (string, error) {
	return c.Issue(KindAccess, subject, ownerID, c.accessTTL)
}

// IssueRefresh signs a refresh credential with the configured refresh TTL.
func (c *Codec) IssueRefresh(subject, ownerID string) (string, error) {
	return c.Issue(KindRefresh, subject, ownerID, c.refreshTTL)
}

// Validate verifies signature and expiry and checks the kind tag.
func (c *Codec) Validate(token string, expected Kind) (Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		// Expiry wins over signature problems so callers see a stable
		// "expired" category for stale credentials.
		if expiredUnverified(token) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrMalformed
	}
	if claims.Subject == "" || claims.OwnerID == "" {
		return Claims{}, ErrMalformed
	}
	if Kind(claims.Kind) != expected {
		return Claims{}, ErrWrongKind
	}
	return Claims{
		Subject: claims.Subject,
		OwnerID: claims.OwnerID,
		Kind:    Kind(claims.Kind),
	}, nil
}

func expiredUnverified(token string) bool {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now())
}
