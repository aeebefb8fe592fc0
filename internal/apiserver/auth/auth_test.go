package auth

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"
	return cfg
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pass1234" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("pass1234", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong-pass", hash) {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "user-abc123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-abc123" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("missing iat/exp")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != cfg.TokenTTL {
		t.Errorf("ttl = %v, want %v", got, cfg.TokenTTL)
	}
}

func TestParseTokenRejections(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken(cfg, "user-abc123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
		cfg   Config
	}{
		{"wrong secret", token, Config{JWTSecret: "other-secret", TokenTTL: time.Hour}},
		{"garbage", "not.a.jwt", cfg},
		{"empty", "", cfg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.cfg, tt.token); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestParseTokenExpired(t *testing.T) {
	cfg := testConfig()
	cfg.TokenTTL = -time.Minute

	token, err := GenerateToken(cfg, "user-abc123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(cfg, token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestNewResetToken(t *testing.T) {
	plain, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(plain) {
		t.Errorf("plain token format: %q", plain)
	}
	if hash == plain {
		t.Error("stored hash equals plain token")
	}

	plain2, _, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if plain == plain2 {
		t.Error("two tokens are identical")
	}
}

func TestCheckPasswordPair(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantErr  string
	}{
		{"valid", "pass1234", "pass1234", ""},
		{"too short", "pass", "pass", "at least 8"},
		{"mismatch", "pass1234", "pass12345", "not the same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPasswordPair(tt.password, tt.confirm)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
