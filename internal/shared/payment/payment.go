// Package payment 支付网关适配：checkout 会话创建与 webhook 事件验签
package payment

import (
	"context"
	"errors"
	"time"
)

// Config 支付网关配置
type Config struct {
	APIBase       string        `yaml:"api_base"`
	Currency      string        `yaml:"currency"`
	Timeout       time.Duration `yaml:"timeout"`
	SecretKey     string        `yaml:"-"` // 从 STRIPE_SECRET_KEY 环境变量读取
	WebhookSecret string        `yaml:"-"` // 从 STRIPE_WEBHOOK_SECRET 环境变量读取
}

// DefaultConfig 返回默认支付配置
func DefaultConfig() Config {
	return Config{
		APIBase:  "https://api.stripe.com",
		Currency: "usd",
		Timeout:  30 * time.Second,
	}
}

// CheckoutParams checkout 会话参数，金额单位为最小货币单位（分）
type CheckoutParams struct {
	TourID        string
	TourName      string
	TourSummary   string
	ImageURL      string
	AmountCents   int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Session 网关返回的 checkout 会话
// ClientReferenceID 回传行程 ID，webhook 据此补录订单
type Session struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	AmountTotal       int64  `json:"amount_total"`
}

// Event webhook 事件
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Session `json:"object"`
	} `json:"data"`
}

// EventCheckoutCompleted 支付完成事件类型
const EventCheckoutCompleted = "checkout.session.completed"

var (
	// ErrInvalidSignature webhook 签名缺失、格式错误或校验失败
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrSignatureExpired webhook 时间戳超出容忍窗口
	ErrSignatureExpired = errors.New("webhook signature timestamp too old")
)

// Gateway 支付网关接口
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
