package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2/jwt"
)

type contextKey string

// OwnerKey carries the authenticated owner identity in the request context.
const OwnerKey contextKey = "ownerID"

type JwtTokenParams struct {
	Issuer   string
	Audience string
}

// TokenValidator guards the policy admin surface: only requests carrying a
// bearer token with an owner identity claim get through.
type TokenValidator struct {
	JwtTokenParams
	logger   *zap.Logger
	disabled bool
}

func NewTokenValidator(logger *zap.Logger, params JwtTokenParams, disabled bool) TokenValidator {
	return TokenValidator{logger: logger, JwtTokenParams: params, disabled: disabled}
}

// ValidateGetOwner extracts the owner identity and stores it in the request
// context. With validation disabled (demo runs) the identity comes from the
// X-Owner-ID header instead.
func (t TokenValidator) ValidateGetOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.disabled {
			owner := r.Header.Get("X-Owner-ID")
			if owner == "" {
				t.authError(w, errors.New("missing X-Owner-ID header"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), OwnerKey, owner)))
			return
		}

		token := r.Header.Get("Authorization")
		claims, err := parseToken(strings.TrimPrefix(token, "Bearer "))
		if err != nil {
			t.authError(w, errors.New("failed to parse the auth token: "+err.Error()))
			return
		}

		if err := t.validateClaims(claims); err != nil {
			t.authError(w, errors.New("auth token validation: "+err.Error()))
			return
		}

		owner, ok := claims["oid"].(string)
		if !ok || owner == "" {
			t.authError(w, errors.New("auth token carries no owner identity"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), OwnerKey, owner)))
	})
}

// Owner reads the authenticated owner identity from the request context.
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(OwnerKey).(string)
	return owner
}

func (t TokenValidator) authError(w http.ResponseWriter, err error) {
	t.logger.Warn(err.Error())
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(err.Error()))
}

func (t TokenValidator) validateClaims(claims map[string]interface{}) error {
	if t.Issuer != "" {
		if issuer, _ := claims["iss"].(string); issuer != t.Issuer {
			return errors.New("unexpected token issuer")
		}
	}
	if t.Audience != "" {
		if audience, _ := claims["aud"].(string); audience != t.Audience {
			return errors.New("unexpected token audience")
		}
	}
	return nil
}

func parseToken(tokenString string) (map[string]interface{}, error) {
	var claims map[string]interface{}

	token, err := jwt.ParseSigned(tokenString)
	if err != nil {
		return nil, err
	}

	if err := token.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, err
	}

	return claims, nil
}
