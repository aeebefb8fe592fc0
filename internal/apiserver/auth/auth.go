// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tourbook/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// Config 认证配置
type Config struct {
	JWTSecret  string        `yaml:"-"` // 只从 JWT_SECRET 环境变量读取
	TokenTTL   time.Duration `yaml:"token_ttl"`
	CookieDays int           `yaml:"cookie_days"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		JWTSecret:  "",
		TokenTTL:   90 * 24 * time.Hour,
		CookieDays: 90,
	}
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// GenerateToken 为用户签发 HS256 访问令牌
func GenerateToken(cfg Config, userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
func ParseToken(cfg Config, tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// NewResetToken 生成密码重置 token：返回明文和库中存储的哈希
func NewResetToken() (plain, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, model.HashResetToken(plain), nil
}

// ============================================================================
// 会话 Cookie
// ============================================================================

const cookieName = "jwt"

// SetTokenCookie 写入会话 cookie
// 经 TLS 或反向代理转发的 HTTPS 请求标记 Secure
func SetTokenCookie(w http.ResponseWriter, r *http.Request, cfg Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(cfg.CookieDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
}

// ClearTokenCookie 用短期占位值覆盖会话 cookie（登出）
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithUser 将认证用户注入 context
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetUser 从 context 获取认证用户，未认证时返回 nil
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeyAuthUser).(*model.User)
	return user
}
