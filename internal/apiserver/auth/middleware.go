package auth

import (
	"net/http"
	"strings"

	"tourbook/internal/apiserver/respond"
	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/model"
)

// extractToken 从 Authorization 头或会话 cookie 提取令牌
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// resolveUser 验证令牌并回查用户
// 令牌签发之后修改过密码的用户视为未认证
func resolveUser(r *http.Request, cfg Config, store UserStore) (*model.User, error) {
	token := extractToken(r)
	if token == "" {
		return nil, apperr.Unauthorized("you are not logged in, please log in to get access")
	}
	claims, err := ParseToken(cfg, token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token, please log in again")
	}
	user, err := store.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("the user belonging to this token no longer exists")
	}
	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperr.Unauthorized("user recently changed password, please log in again")
	}
	return user, nil
}

// Protect 创建强制认证中间件，认证用户注入 context
func Protect(cfg Config, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, cfg, store)
			if err != nil {
				respond.Error(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Identify 创建宽松认证中间件：能认出用户就注入 context，认不出也放行
func Identify(cfg Config, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolveUser(r, cfg, store); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles 角色守卫，必须套在 Protect 内层
func RequireRoles(roles ...model.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[model.UserRole]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil || !allowed[user.Role] {
				respond.Error(w, apperr.Forbidden("you do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
