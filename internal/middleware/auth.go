package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
)

// Claims is the JWT payload the API accepts: the user ID in sub, the user's
// roles, and a mandatory expiry.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type principalKey struct{}

type principalSlotKey struct{}

// principalSlot lets an outer middleware see the principal resolved by an
// inner one.
type principalSlot struct {
	principal domain.Principal
	set       bool
}

func withPrincipalSlot(ctx context.Context, s *principalSlot) context.Context {
	return context.WithValue(ctx, principalSlotKey{}, s)
}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	if s, ok := ctx.Value(principalSlotKey{}).(*principalSlot); ok {
		s.principal, s.set = p, true
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller stored in ctx.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticator verifies and mints HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator returns an Authenticator keyed by secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
	}
}

// Parse verifies token and resolves it into a Principal. Every failure wraps
// domain.ErrUnauthorized.
func (a *Authenticator) Parse(token string) (domain.Principal, error) {
	var claims Claims
	_, err := a.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject is not a user id", domain.ErrUnauthorized)
	}
	roles, err := domain.ParseRoles(claims.Roles)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return domain.Principal{UserID: id, Roles: roles}, nil
}

// Issue signs a token for p that expires after ttl.
func (a *Authenticator) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: p.Roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ErrorWriter renders an error response; handlers supply theirs so 401s share
// the API's error body.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Require returns a middleware that resolves the bearer token into a
// Principal stored on the request context. Requests without a valid token
// are answered through onErr with an error wrapping domain.ErrUnauthorized.
func (a *Authenticator) Require(onErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				onErr(w, r, err)
				return
			}
			p, err := a.Parse(token)
			if err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

var errNoBearer = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errNoBearer
	}
	return strings.TrimSpace(token), nil
}
