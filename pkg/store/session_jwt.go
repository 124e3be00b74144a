package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"datadesk/internal/util"
)

const (
	defaultJWTIssuer   = "datadesk"
	defaultJWTAudience = "datadesk-api"
)

var defaultJWTLeeway = 30 * time.Second

// JWTSessionStore issues and validates HS256 session tokens. Tokens carry a
// jti so that logout can revoke them through the TokenRevoker.
type JWTSessionStore struct {
	secret  []byte
	ttl     time.Duration
	revoker TokenRevoker

	issuer   string
	audience string
	leeway   time.Duration
}

// JWTOptions configures JWT claim validation behavior.
type JWTOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// NewJWTSessionStore builds an HS256 JWT session store.
func NewJWTSessionStore(secret string, ttl time.Duration, revoker TokenRevoker) *JWTSessionStore {
	return NewJWTSessionStoreWithOptions(secret, ttl, revoker, JWTOptions{})
}

// NewJWTSessionStoreWithOptions builds an HS256 store with custom claim options.
func NewJWTSessionStoreWithOptions(secret string, ttl time.Duration, revoker TokenRevoker, opts JWTOptions) *JWTSessionStore {
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		issuer = defaultJWTIssuer
	}
	audience := strings.TrimSpace(opts.Audience)
	if audience == "" {
		audience = defaultJWTAudience
	}
	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = defaultJWTLeeway
	}
	if revoker == nil {
		revoker = NewMemoryTokenRevoker()
	}
	return &JWTSessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		revoker:  revoker,
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
	}
}

// NewSession issues a signed token for the subject.
func (s *JWTSessionStore) NewSession(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		ID:        util.NewID(),
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// SubjectFromToken validates the token and resolves its subject.
func (s *JWTSessionStore) SubjectFromToken(token string) (string, bool, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", false, nil
	}
	if claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(claims.ID)
		if err != nil {
			return "", false, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return "", false, nil
		}
	}
	return claims.Subject, true, nil
}

// DeleteSession revokes the token until its natural expiry.
func (s *JWTSessionStore) DeleteSession(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		// Already invalid tokens need no revocation.
		return nil
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revoker.Revoke(claims.ID, ttl)
}

func (s *JWTSessionStore) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
