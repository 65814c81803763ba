package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/services"
)

const adminRole = "admin"

var errNotAdmin = errors.New("token does not carry the admin role")

// AdminOnly lets a request through only when it carries a Bearer HS256 token
// signed with secret whose "role" claim is "admin". An empty secret disables
// the guarded routes entirely.
func AdminOnly(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				services.SendErrorResponse(w, "Administrative updates are disabled", http.StatusForbidden, nil)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				services.SendErrorResponse(w, "Invalid authorization header format", http.StatusUnauthorized, nil)
				return
			}

			subject, err := validateAdminToken(parts[1], secret)
			if errors.Is(err, errNotAdmin) {
				services.SendErrorResponse(w, "Admin role required", http.StatusForbidden, nil)
				return
			}
			if err != nil {
				services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(audit.WithActor(r.Context(), subject)))
		})
	}
}

func validateAdminToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}

	if role, _ := claims["role"].(string); role != adminRole {
		return "", errNotAdmin
	}

	sub, _ := claims.GetSubject()
	return sub, nil
}
