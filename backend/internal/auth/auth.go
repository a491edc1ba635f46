// Package auth turns bearer tokens into verified subject identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"newsgraph/backend/pkg/logger"
)

var (
	ErrMissingToken  = errors.New("missing authentication token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Identity is the caller as seen by identity-scoped queries. Only a Verified
// identity with a non-empty Subject may be used to filter data.
type Identity struct {
	Subject  string
	Verified bool
}

// Anonymous is the identity of a caller without a valid token
var Anonymous = Identity{}

// IsVerified reports whether the identity can scope a query
func (i Identity) IsVerified() bool {
	return i.Verified && i.Subject != ""
}

type identityKey struct{}

// WithIdentity attaches an identity to ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached to ctx, or Anonymous
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Anonymous
}

// Verifier validates HS256 tokens issued by the identity provider
type Verifier struct {
	secret   []byte
	issuer   string
	audience []string
}

// NewVerifier creates a verifier. issuer and audience are checked only when set.
func NewVerifier(secret, issuer string, audience []string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("secret key required for HS256")
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Verify validates a token (with or without the "Bearer " prefix) and returns
// the verified identity of its subject
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return Anonymous, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous, ErrExpiredToken
		}
		return Anonymous, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Anonymous, ErrInvalidClaims
	}

	if len(v.audience) > 0 {
		valid := false
		for _, aud := range v.audience {
			if slices.Contains(claims.Audience, aud) {
				valid = true
				break
			}
		}
		if !valid {
			return Anonymous, fmt.Errorf("%w: invalid audience", ErrInvalidClaims)
		}
	}

	if claims.Subject == "" {
		return Anonymous, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	return Identity{Subject: claims.Subject, Verified: true}, nil
}

// Middleware attaches the caller's identity to every request. Requests without
// a valid token continue as Anonymous; identity-scoped handlers reject them.
// A nil verifier treats every caller as Anonymous.
func Middleware(v *Verifier) gin.HandlerFunc {
	log := logger.Named("auth")
	return func(c *gin.Context) {
		id := Anonymous
		if header := c.GetHeader("Authorization"); header != "" && v != nil {
			verified, err := v.Verify(header)
			if err != nil {
				log.Debug("Rejected bearer token",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
			} else {
				id = verified
			}
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
