package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/fittingroom/training-backend/internal/services"
)

func TestHandleTrainingWebhook_MissingUserID(t *testing.T) {
	prof := &stubProfile{}
	h := New(&stubTraining{}, prof, nil)
	r := newTestRouter("", h)

	w := postJSON(t, r, "/training-webhook-handler", `{"status":"COMPLETED"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if prof.recCalls != 0 {
		t.Fatalf("profile must not be touched without user_id")
	}
}

func TestHandleTrainingWebhook_InvalidPayload(t *testing.T) {
	h := New(&stubTraining{}, &stubProfile{}, nil)
	r := newTestRouter("", h)

	w := postJSON(t, r, "/training-webhook-handler?user_id=u1", `{not json`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandleTrainingWebhook_Success(t *testing.T) {
	prof := &stubProfile{updated: true}
	h := New(&stubTraining{}, prof, nil)
	r := newTestRouter("", h)

	body := `{"status":"COMPLETED","request_id":"req-1","payload":{"diffusers_lora_file":{"url":"https://cdn/lora.safetensors"}}}`
	w := postJSON(t, r, "/training-webhook-handler?user_id=u1", body, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["received"] != true || resp["updated"] != true {
		t.Fatalf("unexpected ack: %v", resp)
	}
	if prof.gotUser != "u1" || prof.gotOutcome.ModelURL != "https://cdn/lora.safetensors" {
		t.Fatalf("RecordOutcome call: user=%q outcome=%+v", prof.gotUser, prof.gotOutcome)
	}
}

func TestHandleTrainingWebhook_FailureNotificationAcked(t *testing.T) {
	prof := &stubProfile{updated: false}
	h := New(&stubTraining{}, prof, nil)
	r := newTestRouter("", h)

	w := postJSON(t, r, "/training-webhook-handler?user_id=u1", `{"status":"ERROR","request_id":"req-1"}`, nil)

	// Failures are acknowledged with 2xx so the provider stops redelivering.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["updated"] != false {
		t.Fatalf("unexpected ack: %v", resp)
	}
	if prof.recCalls != 1 {
		t.Fatalf("RecordOutcome calls = %d", prof.recCalls)
	}
}

func TestHandleTrainingWebhook_PersistFailureIsRetryable(t *testing.T) {
	prof := &stubProfile{recErr: errors.Join(services.ErrProfilePersist, errors.New("no profile row"))}
	h := New(&stubTraining{}, prof, nil)
	r := newTestRouter("", h)

	body := `{"payload":{"success":true,"diffusers_lora_file":{"url":"https://cdn/lora.safetensors"}}}`
	w := postJSON(t, r, "/training-webhook-handler?user_id=u1", body, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d; provider needs a 5xx to retry", w.Code)
	}
	if got := decodeBody(t, w)["code"]; got != ErrCodePersistFailed {
		t.Fatalf("code = %v", got)
	}
}
