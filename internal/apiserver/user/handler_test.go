package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/shared/model"
	"tourbook/internal/shared/query"
)

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	user := &model.User{
		ID:     "user-1",
		Name:   "Max",
		Email:  "max@example.com",
		Role:   model.UserRoleUser,
		Active: true,
	}
	return req.WithContext(auth.WithUser(req.Context(), user))
}

func TestUpdateMeRejectsPasswordFields(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name string
		body string
	}{
		{"password", `{"password":"newpass123"}`},
		{"passwordConfirm", `{"passwordConfirm":"newpass123"}`},
		{"both with profile fields", `{"name":"Max","password":"a","passwordConfirm":"a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.UpdateMe(rec, authedRequest("PATCH", "/api/v1/users/update-me", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "/update-password") {
				t.Errorf("body = %s, want redirect hint", rec.Body.String())
			}
		})
	}
}

func TestUpdateMeEmptyPayloadReturnsCurrentUser(t *testing.T) {
	h := &Handler{}

	rec := httptest.NewRecorder()
	h.UpdateMe(rec, authedRequest("PATCH", "/api/v1/users/update-me", `{}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			User model.User `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.User.Email != "max@example.com" {
		t.Errorf("email = %q", body.Data.User.Email)
	}
}

func TestUpdateMeRejectsInvalidEmail(t *testing.T) {
	h := &Handler{}

	rec := httptest.NewRecorder()
	h.UpdateMe(rec, authedRequest("PATCH", "/api/v1/users/update-me", `{"email":"not-an-email"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateNotSupported(t *testing.T) {
	h := &Handler{}

	rec := httptest.NewRecorder()
	h.CreateNotSupported(rec, httptest.NewRequest("POST", "/api/v1/users", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/auth/signup") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestFieldsExcludeCredentialColumns(t *testing.T) {
	for _, param := range []string{"passwordHash", "password_hash", "active", "passwordResetToken"} {
		values := url.Values{param: {"x"}}
		if _, err := query.Parse(values, Fields); err == nil {
			t.Errorf("filter on %q accepted, want rejection", param)
		}
	}
}
