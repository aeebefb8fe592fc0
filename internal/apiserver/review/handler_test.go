package review

import (
	"net/http/httptest"
	"testing"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/shared/model"
)

func TestPrefillFromPathAndContext(t *testing.T) {
	h := &Handler{}

	req := httptest.NewRequest("POST", "/api/v1/tours/tour-1/reviews", nil)
	req.SetPathValue("tourId", "tour-1")
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: "user-9", Role: model.UserRoleUser}))

	review := &model.Review{}
	if err := h.prefill(req, review); err != nil {
		t.Fatalf("prefill: %v", err)
	}
	if review.TourID != "tour-1" {
		t.Errorf("tour = %q", review.TourID)
	}
	if review.UserID != "user-9" {
		t.Errorf("user = %q", review.UserID)
	}
}

// 请求体里伪造的 user 引用会被认证上下文覆盖
func TestPrefillOverridesSpoofedAuthor(t *testing.T) {
	h := &Handler{}

	req := httptest.NewRequest("POST", "/api/v1/reviews", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: "user-real", Role: model.UserRoleUser}))

	review := &model.Review{TourID: "tour-1", UserID: "user-spoofed"}
	if err := h.prefill(req, review); err != nil {
		t.Fatalf("prefill: %v", err)
	}
	if review.UserID != "user-real" {
		t.Errorf("user = %q, want author from auth context", review.UserID)
	}
}

func TestParentScope(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/tours/tour-1/reviews", nil)
	req.SetPathValue("tourId", "tour-1")
	scope := parentScope(req)
	if len(scope) != 1 || scope[0].Key != "tour" || scope[0].Value != "tour-1" {
		t.Errorf("scope = %v", scope)
	}

	flat := httptest.NewRequest("GET", "/api/v1/reviews", nil)
	if got := parentScope(flat); got != nil {
		t.Errorf("flat scope = %v, want nil", got)
	}
}
