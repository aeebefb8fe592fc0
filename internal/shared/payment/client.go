package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client 基于 HTTP 的支付网关客户端，API 形态与 Stripe 兼容
type Client struct {
	cfg        Config
	httpClient *http.Client
	// 验签用的当前时间，测试中可替换
	now func() time.Time
}

// NewClient 创建支付网关客户端
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultConfig().APIBase
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultConfig().Currency
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// apiError 网关错误响应体
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession 创建一次性支付的 checkout 会话
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("customer_email", params.CustomerEmail)
	form.Set("client_reference_id", params.TourID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", c.cfg.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.TourName)
	form.Set("line_items[0][price_data][product_data][description]", params.TourSummary)
	if params.ImageURL != "" {
		form.Set("line_items[0][price_data][product_data][images][0]", params.ImageURL)
	}

	endpoint := strings.TrimRight(c.cfg.APIBase, "/") + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payment gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("payment gateway: %s (status %d)", apiErr.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("payment gateway: unexpected status %d", resp.StatusCode)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}
