package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance webhook 时间戳的容忍窗口，防重放
const signatureTolerance = 5 * time.Minute

// SignatureHeader webhook 签名所在的请求头
const SignatureHeader = "Stripe-Signature"

// VerifyEvent 校验 webhook 签名并解析事件
//
// 签名头格式 "t=<unix>,v1=<hex>"，被签内容为 "<t>.<payload>" 的
// HMAC-SHA256。允许多个 v1 值，任意一个匹配即通过。
func (c *Client) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if c.now().Sub(time.Unix(timestamp, 0)) > signatureTolerance {
		return nil, ErrSignatureExpired
	}

	expected := computeSignature(c.cfg.WebhookSecret, timestamp, payload)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

func parseSignatureHeader(header string) (timestamp int64, signatures [][]byte, err error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

func computeSignature(secret string, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}
