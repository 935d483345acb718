package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fittingroom/training-backend/internal/domain"
	"github.com/fittingroom/training-backend/internal/http/middleware"
	"github.com/fittingroom/training-backend/internal/provider"
	"github.com/fittingroom/training-backend/internal/services"
)

// ----- Fakes -----

type stubTraining struct {
	calls   int
	gotUser string
	gotURLs []string
	res     *services.SubmitResult
	err     error
}

func (s *stubTraining) Submit(_ context.Context, userID string, imageURLs []string) (*services.SubmitResult, error) {
	s.calls++
	s.gotUser, s.gotURLs = userID, imageURLs
	return s.res, s.err
}

type stubProfile struct {
	profile *domain.UserProfile
	getErr  error

	recCalls   int
	gotOutcome provider.TrainingOutcome
	gotUser    string
	updated    bool
	recErr     error
}

func (s *stubProfile) Get(_ context.Context, userID string) (*domain.UserProfile, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.profile, nil
}

func (s *stubProfile) RecordOutcome(_ context.Context, userID string, outcome provider.TrainingOutcome) (bool, error) {
	s.recCalls++
	s.gotUser, s.gotOutcome = userID, outcome
	return s.updated, s.recErr
}

type stubIdem struct {
	rec       *domain.Idempotency
	lookupErr error

	recorded  bool
	recKey    string
	recReqID  string
	recordErr error
}

func (s *stubIdem) Lookup(_ context.Context, _, _ string, _ time.Time) (*domain.Idempotency, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.rec, nil
}

func (s *stubIdem) Record(_ context.Context, _, key, requestID string, _ int) error {
	s.recorded = true
	s.recKey, s.recReqID = key, requestID
	return s.recordErr
}

// newTestRouter wires the handlers behind a stand-in auth middleware that
// injects uid, plus the idempotency validator so keys get stashed.
func newTestRouter(uid string, h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if uid != "" {
		r.Use(func(c *gin.Context) { c.Set(middleware.CtxKeyUserID, uid); c.Next() })
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/train-lora", h.StartTraining)
	r.POST("/training-webhook-handler", h.HandleTrainingWebhook)
	r.GET("/profile", h.GetProfile)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return m
}

// ----- Tests -----

func TestStartTraining_HappyPath(t *testing.T) {
	svc := &stubTraining{res: &services.SubmitResult{RequestID: "req-7", Images: 3}}
	h := New(svc, &stubProfile{}, nil)
	r := newTestRouter("user-1", h)

	w := postJSON(t, r, "/train-lora", `{"imageUrls":["u1","u2","u3"]}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["message"] != trainingStartedMsg || body["requestId"] != "req-7" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["images"] != float64(3) {
		t.Fatalf("images = %v", body["images"])
	}
	if svc.gotUser != "user-1" || len(svc.gotURLs) != 3 {
		t.Fatalf("service call: user=%q urls=%v", svc.gotUser, svc.gotURLs)
	}
}

func TestStartTraining_NoIdentity(t *testing.T) {
	svc := &stubTraining{}
	h := New(svc, &stubProfile{}, nil)
	r := newTestRouter("", h) // no auth middleware injected

	w := postJSON(t, r, "/train-lora", `{"imageUrls":["u1"]}`, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service must not run without identity")
	}
}

func TestStartTraining_InvalidBody(t *testing.T) {
	h := New(&stubTraining{}, &stubProfile{}, nil)
	r := newTestRouter("user-1", h)

	for _, body := range []string{``, `{`, `{"imageUrls":"not-a-list"}`, `{}`} {
		w := postJSON(t, r, "/train-lora", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, w.Code)
		}
		if got := decodeBody(t, w)["code"]; got != ErrCodeBadRequest {
			t.Fatalf("body %q: code = %v", body, got)
		}
	}
}

func TestStartTraining_EmptyList(t *testing.T) {
	svc := &stubTraining{err: services.ErrNoSourceImages}
	h := New(svc, &stubProfile{}, nil)
	r := newTestRouter("user-1", h)

	w := postJSON(t, r, "/train-lora", `{"imageUrls":[]}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStartTraining_PipelineErrors(t *testing.T) {
	cases := []struct {
		err      error
		wantCode string
	}{
		{errors.Join(services.ErrArchiveBuild, errors.New("image 2 fetch failed")), ErrCodeArchiveFailed},
		{errors.Join(services.ErrProviderUpload, errors.New("storage 502")), ErrCodeSubmitFailed},
		{errors.Join(services.ErrProviderSubmit, errors.New("queue down")), ErrCodeSubmitFailed},
	}
	for _, tc := range cases {
		h := New(&stubTraining{err: tc.err}, &stubProfile{}, nil)
		r := newTestRouter("user-1", h)

		w := postJSON(t, r, "/train-lora", `{"imageUrls":["u1"]}`, nil)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%v: status = %d", tc.err, w.Code)
		}
		if got := decodeBody(t, w)["code"]; got != tc.wantCode {
			t.Fatalf("%v: code = %v; want %s", tc.err, got, tc.wantCode)
		}
	}
}

func TestStartTraining_ReplayReturnsStoredRequestID(t *testing.T) {
	svc := &stubTraining{res: &services.SubmitResult{RequestID: "req-new"}}
	idem := &stubIdem{rec: &domain.Idempotency{RequestID: "req-orig", Status: http.StatusOK}}
	h := New(svc, &stubProfile{}, idem)
	r := newTestRouter("user-1", h)

	w := postJSON(t, r, "/train-lora", `{"imageUrls":["u1"]}`, map[string]string{
		middleware.HeaderIdempotencyKey: "k-1",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody(t, w)["requestId"]; got != "req-orig" {
		t.Fatalf("requestId = %v; want replayed req-orig", got)
	}
	if svc.calls != 0 {
		t.Fatalf("pipeline must not run on replay")
	}
}

func TestStartTraining_RecordsIdempotencyKey(t *testing.T) {
	svc := &stubTraining{res: &services.SubmitResult{RequestID: "req-9", Images: 1}}
	idem := &stubIdem{lookupErr: errors.New("not found")}
	h := New(svc, &stubProfile{}, idem)
	r := newTestRouter("user-1", h)

	w := postJSON(t, r, "/train-lora", `{"imageUrls":["u1"]}`, map[string]string{
		middleware.HeaderIdempotencyKey: "k-2",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !idem.recorded || idem.recKey != "k-2" || idem.recReqID != "req-9" {
		t.Fatalf("idempotency record call: %+v", idem)
	}
}

func TestStartTraining_RecordFailureDoesNotFailRequest(t *testing.T) {
	svc := &stubTraining{res: &services.SubmitResult{RequestID: "req-9", Images: 1}}
	idem := &stubIdem{lookupErr: errors.New("not found"), recordErr: errors.New("db locked")}
	h := New(svc, &stubProfile{}, idem)
	r := newTestRouter("user-1", h)

	w := postJSON(t, r, "/train-lora", `{"imageUrls":["u1"]}`, map[string]string{
		middleware.HeaderIdempotencyKey: "k-3",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; submission already accepted upstream", w.Code)
	}
}
