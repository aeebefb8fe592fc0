// Package mailer 事务邮件发送：欢迎邮件与密码重置邮件
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"tourbook/internal/shared/model"
)

// Config SMTP 配置
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	From     string `yaml:"from"`
	Password string `yaml:"-"` // 从 SMTP_PASSWORD 环境变量读取
}

// DefaultConfig 返回默认邮件配置
func DefaultConfig() Config {
	return Config{
		Port: 587,
		From: "Tourbook <noreply@tourbook.local>",
	}
}

// Enabled 是否配置了 SMTP 出口
func (c Config) Enabled() bool {
	return c.Host != ""
}

// SMTP 基于 net/smtp 的邮件发送器
type SMTP struct {
	cfg Config
	// 发送函数，测试中可替换
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New 创建 SMTP 邮件发送器
func New(cfg Config) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = DefaultConfig().Port
	}
	if cfg.From == "" {
		cfg.From = DefaultConfig().From
	}
	return &SMTP{cfg: cfg, send: smtp.SendMail}
}

// SendWelcome 发送欢迎邮件
func (m *SMTP) SendWelcome(ctx context.Context, user *model.User) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nWelcome to Tourbook! We're glad to have you on board.\r\n", firstName(user.Name))
	return m.sendMail(ctx, user.Email, "Welcome to Tourbook!", body)
}

// SendPasswordReset 发送密码重置邮件，resetURL 内含明文 token
func (m *SMTP) SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nForgot your password? Submit a PATCH request with your new password to:\r\n%s\r\n\r\nThis link is valid for 10 minutes. If you didn't forget your password, please ignore this email.\r\n",
		firstName(user.Name), resetURL)
	return m.sendMail(ctx, user.Email, "Your password reset token (valid for 10 minutes)", body)
}

func (m *SMTP) sendMail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, envelopeFrom(m.cfg.From), []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// envelopeFrom 从 "Name <addr>" 形式的 From 提取信封地址
func envelopeFrom(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	if name == "" {
		return "there"
	}
	return name
}

// NoOp 不发送任何邮件的发送器（用于测试和无 SMTP 部署）
type NoOp struct{}

// NewNoOp 创建 NoOp 发送器
func NewNoOp() *NoOp {
	return &NoOp{}
}

func (NoOp) SendWelcome(context.Context, *model.User) error {
	return nil
}

func (NoOp) SendPasswordReset(context.Context, *model.User, string) error {
	return nil
}
