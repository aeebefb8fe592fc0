package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleGuide     UserRole = "guide"
	UserRoleLeadGuide UserRole = "lead-guide"
	UserRoleAdmin     UserRole = "admin"
)

// User 用户
//
// PasswordHash 永远不序列化给客户端；PasswordResetToken 存储的是
// 明文 token 的 SHA-256，明文只出现在重置邮件里。
type User struct {
	ID                   string     `json:"id" bson:"_id" validate:"required"`
	Name                 string     `json:"name" bson:"name" validate:"required"`
	Email                string     `json:"email" bson:"email" validate:"required,email"`
	Photo                string     `json:"photo,omitempty" bson:"photo,omitempty"`
	Role                 UserRole   `json:"role" bson:"role" validate:"required,oneof=user guide lead-guide admin"`
	PasswordHash         string     `json:"-" bson:"password_hash"`
	PasswordChangedAt    *time.Time `json:"-" bson:"password_changed_at,omitempty"`
	PasswordResetToken   string     `json:"-" bson:"password_reset_token,omitempty"`
	PasswordResetExpires *time.Time `json:"-" bson:"password_reset_expires,omitempty"`
	Active               bool       `json:"-" bson:"active"`
	CreatedAt            time.Time  `json:"createdAt" bson:"created_at"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

func (u *User) BeforeSave() {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
}

// ChangedPasswordAfter 判断密码是否在给定令牌签发时间之后被修改过
// 比较精度为秒，与 JWT iat 一致
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// NormalizeEmail 邮箱大小写归一化
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashResetToken 对密码重置 token 做一次性哈希，库中只存哈希值
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
