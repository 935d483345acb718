// Package provider implements the client for the external model-training
// provider: archive uploads into provider storage, training-job submission
// against the provider's queue API, and decoding of the asynchronous
// completion webhooks the provider sends back.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrMissingAPIKey is returned by NewClient when no provider credential is
// configured. Surfaced to callers as a server configuration error.
var ErrMissingAPIKey = errors.New("provider api key is not configured")

// Options configures a provider Client.
type Options struct {
	// APIKey is the provider credential, sent as "Authorization: Key <...>".
	APIKey string
	// QueueURL is the base URL of the job queue API.
	QueueURL string
	// StorageURL is the base URL of the storage API.
	StorageURL string
	// TrainingApp identifies the training application to run
	// (e.g. "fal-ai/flux-lora-fast-training").
	TrainingApp string
	// Timeout bounds each provider call.
	Timeout time.Duration
}

// Client talks to the training provider's storage and queue APIs.
// It is safe for concurrent use.
type Client struct {
	http        *resty.Client
	storageURL  string
	queueURL    string
	trainingApp string
}

// NewClient constructs a provider client, validating that a credential is
// present so the misconfiguration is caught before any job is attempted.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	hc := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Authorization", "Key "+opts.APIKey)
	return &Client{
		http:        hc,
		storageURL:  opts.StorageURL,
		queueURL:    opts.QueueURL,
		trainingApp: opts.TrainingApp,
	}, nil
}

// initiateUploadResponse is the storage API's answer to an upload initiation:
// a pre-signed PUT target plus the durable URL the file will live at.
type initiateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// UploadArchive stores an archive in provider storage using the two-step
// upload flow (initiate, then PUT the bytes to the returned upload URL) and
// returns the durable file URL to reference in a training job.
func (c *Client) UploadArchive(ctx context.Context, fileName string, data []byte) (string, error) {
	var initiated initiateUploadResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"file_name":    fileName,
			"content_type": "application/zip",
		}).
		SetResult(&initiated).
		Post(c.storageURL + "/storage/upload/initiate")
	if err != nil {
		return "", fmt.Errorf("initiate archive upload: %w", err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("initiate archive upload: status %d: %s", res.StatusCode(), res.String())
	}
	if initiated.UploadURL == "" || initiated.FileURL == "" {
		return "", errors.New("initiate archive upload: incomplete response")
	}

	put, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/zip").
		SetBody(data).
		Put(initiated.UploadURL)
	if err != nil {
		return "", fmt.Errorf("upload archive bytes: %w", err)
	}
	if !put.IsSuccess() {
		return "", fmt.Errorf("upload archive bytes: status %d", put.StatusCode())
	}

	return initiated.FileURL, nil
}

// TrainingJob is the submission payload for one training run.
type TrainingJob struct {
	// ArchiveURL references the uploaded image archive in provider storage.
	ArchiveURL string
	// TriggerWord is the unique phrase that will later invoke this user's
	// trained model. Deterministic per user.
	TriggerWord string
	// WebhookURL is where the provider delivers the completion callback.
	WebhookURL string
}

// trainingInput mirrors the provider's expected input document. Subject
// (identity) training is wanted, not style training, so is_style is always
// false here.
type trainingInput struct {
	ImagesDataURL string `json:"images_data_url"`
	TriggerWord   string `json:"trigger_word"`
	IsStyle       bool   `json:"is_style"`
}

type submitRequest struct {
	Input trainingInput `json:"input"`
	Logs  bool          `json:"logs"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

// SubmitTraining enqueues a training job and returns the provider's request
// id. The call returns as soon as the job is accepted; completion arrives
// asynchronously on the job's webhook URL, which travels as the fal_webhook
// query parameter.
func (c *Client) SubmitTraining(ctx context.Context, job TrainingJob) (string, error) {
	var submitted submitResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fal_webhook", job.WebhookURL).
		SetBody(submitRequest{
			Input: trainingInput{
				ImagesDataURL: job.ArchiveURL,
				TriggerWord:   job.TriggerWord,
				IsStyle:       false,
			},
			Logs: true,
		}).
		SetResult(&submitted).
		Post(c.queueURL + "/" + c.trainingApp)
	if err != nil {
		return "", fmt.Errorf("submit training job: %w", err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("submit training job: status %d: %s", res.StatusCode(), res.String())
	}
	if submitted.RequestID == "" {
		return "", errors.New("submit training job: provider returned no request id")
	}
	return submitted.RequestID, nil
}
