// Webhook payload decoding.
//
// The provider's completion callback arrives in two shapes depending on the
// call path: a top-level {"status": "COMPLETED", ...} document, or a nested
// {"payload": {"success": true, ...}} document. Both are accepted as
// equivalent success signals and normalized into one TrainingOutcome at this
// boundary so the rest of the system never branches on wire shape.
package provider

import (
	"encoding/json"
	"fmt"
)

// StatusCompleted is the top-level status value that marks a finished run.
const StatusCompleted = "COMPLETED"

// TrainingOutcome is the normalized result of a completion callback.
type TrainingOutcome struct {
	// Succeeded is true when either success signal was present.
	Succeeded bool
	// ModelURL references the trained model artifact; may be empty even on
	// success if the provider omitted it.
	ModelURL string
	// Status is the raw top-level status string, kept for logging.
	Status string
	// RequestID is the provider's job id, kept for logging. Not tracked
	// statefully anywhere.
	RequestID string
}

// Actionable reports whether the outcome should be persisted: the run
// succeeded and a model reference is present.
func (o TrainingOutcome) Actionable() bool {
	return o.Succeeded && o.ModelURL != ""
}

// webhookEnvelope covers both callback shapes at once; absent fields simply
// stay zero-valued.
type webhookEnvelope struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Payload   *struct {
		Success           bool `json:"success"`
		DiffusersLoraFile *struct {
			URL string `json:"url"`
		} `json:"diffusers_lora_file"`
	} `json:"payload"`
}

// DecodeWebhook parses a completion-callback body into a TrainingOutcome.
// It fails only on syntactically invalid JSON; unknown or missing fields
// produce a non-actionable outcome rather than an error.
func DecodeWebhook(body []byte) (TrainingOutcome, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return TrainingOutcome{}, fmt.Errorf("decode webhook body: %w", err)
	}

	out := TrainingOutcome{
		Status:    env.Status,
		RequestID: env.RequestID,
		Succeeded: env.Status == StatusCompleted,
	}
	if env.Payload != nil {
		if env.Payload.Success {
			out.Succeeded = true
		}
		if env.Payload.DiffusersLoraFile != nil {
			out.ModelURL = env.Payload.DiffusersLoraFile.URL
		}
	}
	return out, nil
}
