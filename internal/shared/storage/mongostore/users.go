package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/shared/model"
)

// NewUserID 生成新的用户 ID
func (s *Store) NewUserID() string {
	return s.Users().NewID()
}

// CreateUser 插入新用户，ID 为空时生成
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = s.Users().NewID()
	}
	return s.Users().Insert(ctx, user)
}

// GetUserByID 通过 ID 查找用户（停用用户按集合默认约束排除）
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.Users().FindByID(ctx, id)
}

// GetUserByEmail 通过邮箱查找用户（停用用户按集合默认约束排除）
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.Users().FindOne(ctx, bson.D{{Key: "email", Value: model.NormalizeEmail(email)}})
}

// GetUserByResetToken 通过重置 token 哈希查找用户，要求未过期
func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return s.Users().FindOne(ctx, bson.D{
		{Key: "password_reset_token", Value: tokenHash},
		{Key: "password_reset_expires", Value: bson.D{{Key: "$gt", Value: now}}},
	})
}

// SetPasswordReset 写入重置 token 哈希和过期时间
func (s *Store) SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return s.Users().Patch(ctx, id, bson.D{
		{Key: "password_reset_token", Value: tokenHash},
		{Key: "password_reset_expires", Value: expires},
	})
}

// ClearPasswordReset 清除重置 token 字段
// 邮件发送失败的回滚路径也走这里，保证失败的重置不留下可用 token
func (s *Store) ClearPasswordReset(ctx context.Context, id string) error {
	return s.Users().Unset(ctx, id, "password_reset_token", "password_reset_expires")
}

// UpdateUserPassword 更新密码哈希并记录修改时间，同时清除重置字段
// changedAt 之前签发的所有令牌随之失效
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	if err := s.Users().Patch(ctx, id, bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "password_changed_at", Value: changedAt},
	}); err != nil {
		return err
	}
	return s.ClearPasswordReset(ctx, id)
}

// DeactivateUser 停用用户：记录保留，默认读取不再返回
func (s *Store) DeactivateUser(ctx context.Context, id string) error {
	return s.Users().Patch(ctx, id, bson.D{{Key: "active", Value: false}})
}
