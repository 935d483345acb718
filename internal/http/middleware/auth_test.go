package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fittingroom/training-backend/internal/identity"
)

type stubVerifier struct {
	gotToken string
	uid      string
	err      error
}

func (s *stubVerifier) Verify(_ context.Context, token string) (string, error) {
	s.gotToken = token
	if s.err != nil {
		return "", s.err
	}
	return s.uid, nil
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc", "abc"}, // scheme is case-insensitive
		{"Bearer", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"", ""},
		{"Bearer a b", ""},
	}
	for _, tc := range cases {
		if got := BearerToken(tc.header); got != tc.want {
			t.Fatalf("BearerToken(%q) = %q; want %q", tc.header, got, tc.want)
		}
	}
}

func TestAuthenticate_SetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := &stubVerifier{uid: "user-1"}

	r := gin.New()
	r.Use(Authenticate(v))
	r.GET("/p", func(c *gin.Context) {
		uid, _ := c.Get(CtxKeyUserID)
		c.String(http.StatusOK, "%v", uid)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "user-1" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if v.gotToken != "tok-1" {
		t.Fatalf("verifier got token %q", v.gotToken)
	}
}

func TestAuthenticate_RejectedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := &stubVerifier{err: identity.ErrUnauthorized}

	r := gin.New()
	r.Use(Authenticate(v))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "unauthorized" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := &stubVerifier{err: identity.ErrUnauthorized}

	r := gin.New()
	r.Use(Authenticate(v))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if v.gotToken != "" {
		t.Fatalf("verifier should receive empty token, got %q", v.gotToken)
	}
}

func TestAuthenticate_ProviderUnreachable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := &stubVerifier{err: errors.New("dial tcp: connection refused")}

	r := gin.New()
	r.Use(Authenticate(v))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
