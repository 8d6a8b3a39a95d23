package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"perkhub-analytics/pkg/logging/logging"
)

const RoleAdmin = "admin"

// Claims are the bearer-token claims issued by the account service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// ParseToken verifies an HS256 token against secret.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// IssueToken signs claims for userID and role; used by tooling and tests.
func IssueToken(secret []byte, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RequireAdmin admits only requests carrying a valid bearer token whose role
// is admin: 401 without a usable token, 403 for any other role.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.L(r.Context())

			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, errorBody{Error: "Authentication required"})
				return
			}

			claims, err := ParseToken(raw, key)
			if err != nil {
				logger.Info("admin_token_rejected", zap.Error(err))
				writeError(w, http.StatusUnauthorized, errorBody{Error: "Invalid or expired token"})
				return
			}
			if claims.Role != RoleAdmin {
				logger.Info("admin_access_denied",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
				)
				writeError(w, http.StatusForbidden, errorBody{Error: "Admin access required"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = logging.WithLogger(ctx, logger.With(zap.String("admin_id", claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
