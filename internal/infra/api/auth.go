package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleWorker   = "worker"
	RoleOperator = "operator"
)

// ServiceClaims identify an internal caller (generation worker, operator tooling).
type ServiceClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ServiceAuth signs and verifies HS256 service tokens. With an empty secret it
// is disabled and Require lets every request through.
type ServiceAuth struct {
	secret []byte
	issuer string
}

func NewServiceAuth(secret, issuer string) *ServiceAuth {
	return &ServiceAuth{secret: []byte(secret), issuer: issuer}
}

func (a *ServiceAuth) Enabled() bool { return a != nil && len(a.secret) > 0 }

func (a *ServiceAuth) Mint(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *ServiceAuth) Parse(tok string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearer(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
		return strings.TrimSpace(hdr[7:])
	}
	return ""
}

// Require admits requests carrying a valid token with one of roles.
func (a *ServiceAuth) Require(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearer(r)
			if tok == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "missing service token", Code: codeUnauthorized})
				return
			}
			claims, err := a.Parse(tok)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "invalid service token", Code: codeUnauthorized})
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusForbidden, errorBody{Detail: "role not allowed", Code: codeForbidden})
		})
	}
}
