package payment

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(apiBase string) *Client {
	return NewClient(Config{
		APIBase:       apiBase,
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test_456",
	})
}

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		checks := map[string]string{
			"mode":                                "payment",
			"client_reference_id":                 "tour-abc123",
			"customer_email":                      "alice@example.com",
			"line_items[0][quantity]":             "1",
			"line_items[0][price_data][currency]": "usd",
			"line_items[0][price_data][unit_amount]":              "39700",
			"line_items[0][price_data][product_data][name]":       "The Forest Hiker",
			"line_items[0][price_data][product_data][images][0]":  "https://img.example.com/cover.jpg",
		}
		for key, want := range checks {
			if got := r.PostForm.Get(key); got != want {
				t.Errorf("form[%q] = %q, want %q", key, got, want)
			}
		}
		fmt.Fprint(w, `{
			"id": "cs_test_789",
			"url": "https://checkout.example.com/pay/cs_test_789",
			"client_reference_id": "tour-abc123",
			"customer_email": "alice@example.com",
			"amount_total": 39700
		}`)
	}))
	defer srv.Close()

	session, err := testClient(srv.URL).CreateCheckoutSession(context.Background(), CheckoutParams{
		TourID:        "tour-abc123",
		TourName:      "The Forest Hiker",
		TourSummary:   "Breathtaking hike",
		ImageURL:      "https://img.example.com/cover.jpg",
		AmountCents:   39700,
		CustomerEmail: "alice@example.com",
		SuccessURL:    "https://app.example.com/?paid=1",
		CancelURL:     "https://app.example.com/tour/the-forest-hiker",
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if session.ID != "cs_test_789" {
		t.Errorf("session id = %q", session.ID)
	}
	if session.AmountTotal != 39700 {
		t.Errorf("amount = %d", session.AmountTotal)
	}
}

func TestCreateCheckoutSessionGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error": {"message": "your card was declined"}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateCheckoutSession(context.Background(), CheckoutParams{
		TourID: "tour-abc123", AmountCents: 100,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "your card was declined") {
		t.Errorf("error = %v, want gateway message", err)
	}
}

func signedHeader(secret string, ts time.Time, payload []byte) string {
	sig := computeSignature(secret, ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

const eventPayload = `{
	"id": "evt_test_1",
	"type": "checkout.session.completed",
	"data": {"object": {
		"id": "cs_test_789",
		"client_reference_id": "tour-abc123",
		"customer_email": "alice@example.com",
		"amount_total": 39700
	}}
}`

func TestVerifyEventAcceptsValidSignature(t *testing.T) {
	client := testClient("")
	now := time.Now()
	client.now = func() time.Time { return now }

	payload := []byte(eventPayload)
	event, err := client.VerifyEvent(payload, signedHeader("whsec_test_456", now, payload))
	if err != nil {
		t.Fatalf("VerifyEvent: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Errorf("type = %q", event.Type)
	}
	if event.Data.Object.ClientReferenceID != "tour-abc123" {
		t.Errorf("client_reference_id = %q", event.Data.Object.ClientReferenceID)
	}
	if event.Data.Object.AmountTotal != 39700 {
		t.Errorf("amount_total = %d", event.Data.Object.AmountTotal)
	}
}

func TestVerifyEventAcceptsAnyMatchingV1(t *testing.T) {
	client := testClient("")
	now := time.Now()
	client.now = func() time.Time { return now }

	payload := []byte(eventPayload)
	good := signedHeader("whsec_test_456", now, payload)
	header := fmt.Sprintf("t=%d,v1=%s,%s", now.Unix(), strings.Repeat("ab", 32), good[strings.Index(good, "v1="):])
	if _, err := client.VerifyEvent(payload, header); err != nil {
		t.Fatalf("VerifyEvent: %v", err)
	}
}

func TestVerifyEventRejections(t *testing.T) {
	client := testClient("")
	now := time.Now()
	client.now = func() time.Time { return now }
	payload := []byte(eventPayload)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty header", "", ErrInvalidSignature},
		{"missing v1", fmt.Sprintf("t=%d", now.Unix()), ErrInvalidSignature},
		{"wrong secret", signedHeader("whsec_other", now, payload), ErrInvalidSignature},
		{"tampered payload", signedHeader("whsec_test_456", now, []byte(`{}`)), ErrInvalidSignature},
		{"stale timestamp", signedHeader("whsec_test_456", now.Add(-10*time.Minute), payload), ErrSignatureExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.VerifyEvent(payload, tt.header)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
