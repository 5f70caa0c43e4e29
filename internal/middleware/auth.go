package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zhouzirui/emotibot/backend/internal/service/auth"
	"github.com/zhouzirui/emotibot/backend/pkg/utils"
)

type contextKey struct{}

// TokenValidator verifies an access token.
type TokenValidator interface {
	ValidateToken(token string) (auth.Claims, error)
}

// Auth 校验 Bearer 令牌并把声明写入请求上下文。
// EventSource 与 WebSocket 客户端无法设置请求头，因此也接受 ?token= 查询参数。
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(auth.Claims)
	return claims, ok
}
