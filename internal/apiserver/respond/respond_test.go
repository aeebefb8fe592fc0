package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/storage"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	return env
}

func TestErrorTranslation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{"not found", storage.ErrNotFound, 404, "fail", "resource not found"},
		{"page overflow", storage.ErrPageOutOfRange, 404, "fail", "this page does not exist"},
		{"duplicate", storage.ErrDuplicate, 409, "fail", "duplicate value for a unique field"},
		{"wrapped duplicate", fmt.Errorf("insert tour: %w", storage.ErrDuplicate), 409, "fail", "duplicate value for a unique field"},
		{"unauthorized", apperr.Unauthorized("incorrect email or password"), 401, "fail", "incorrect email or password"},
		{"forbidden", apperr.Forbidden("you do not have permission to perform this action"), 403, "fail", "you do not have permission to perform this action"},
		{"upstream", apperr.Upstream("there was an error sending the email", errors.New("smtp: broken")), 502, "error", "there was an error sending the email"},
		{"programmer error hides detail", apperr.Internal(errors.New("nil pointer in handler")), 500, "error", "something went wrong"},
		{"unknown error hides detail", errors.New("driver exploded"), 500, "error", "something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decode(t, rec)
			if env.Status != tt.wantKind {
				t.Errorf("envelope status = %q, want %q", env.Status, tt.wantKind)
			}
			if env.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", env.Message, tt.wantMsg)
			}
		})
	}
}

func TestListIncludesCount(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, 3, map[string]any{"tours": []string{"a", "b", "c"}})

	env := decode(t, rec)
	if env.Status != "success" {
		t.Errorf("status = %q", env.Status)
	}
	if env.Results == nil || *env.Results != 3 {
		t.Errorf("results = %v, want 3", env.Results)
	}
}

func TestWithToken(t *testing.T) {
	rec := httptest.NewRecorder()
	WithToken(rec, 201, "jwt-token", map[string]any{"user": "u"})

	env := decode(t, rec)
	if env.Token != "jwt-token" {
		t.Errorf("token = %q", env.Token)
	}
	if rec.Code != 201 {
		t.Errorf("status = %d", rec.Code)
	}
}
