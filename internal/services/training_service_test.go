package services

import (
	"context"
	"errors"
	"testing"

	"github.com/fittingroom/training-backend/internal/archive"
	"github.com/fittingroom/training-backend/internal/provider"
)

// ----- Fakes -----

type fakeArchiver struct {
	gotURLs []string
	out     *archive.Archive
	err     error
}

func (f *fakeArchiver) Build(ctx context.Context, urls []string) (*archive.Archive, error) {
	f.gotURLs = urls
	return f.out, f.err
}

type fakeProvider struct {
	uploadCalls int
	uploadName  string
	uploadData  []byte
	uploadURL   string
	uploadErr   error

	submitCalls int
	submitJob   provider.TrainingJob
	requestID   string
	submitErr   error
}

func (f *fakeProvider) UploadArchive(ctx context.Context, fileName string, data []byte) (string, error) {
	f.uploadCalls++
	f.uploadName, f.uploadData = fileName, data
	return f.uploadURL, f.uploadErr
}

func (f *fakeProvider) SubmitTraining(ctx context.Context, job provider.TrainingJob) (string, error) {
	f.submitCalls++
	f.submitJob = job
	return f.requestID, f.submitErr
}

func newService(a *fakeArchiver, p *fakeProvider) *TrainingService {
	return &TrainingService{
		Archiver:       a,
		Provider:       p,
		WebhookBaseURL: "https://api.example/functions/v1",
		TriggerPrefix:  "zwx_",
	}
}

// ----- Tests -----

func TestSubmit_HappyPath(t *testing.T) {
	a := &fakeArchiver{out: &archive.Archive{Data: []byte("zip"), Entries: 6}}
	p := &fakeProvider{uploadURL: "https://storage/u1.zip", requestID: "req-1"}
	s := newService(a, p)

	urls := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	res, err := s.Submit(context.Background(), "user-1", urls)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.RequestID != "req-1" || res.Images != 6 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(a.gotURLs) != 6 {
		t.Fatalf("archiver got %d urls", len(a.gotURLs))
	}
	if p.uploadName != "user-1_training_images.zip" || string(p.uploadData) != "zip" {
		t.Fatalf("upload call: name=%q data=%q", p.uploadName, p.uploadData)
	}
	if p.submitJob.ArchiveURL != "https://storage/u1.zip" {
		t.Fatalf("submitted archive url = %q", p.submitJob.ArchiveURL)
	}
	if p.submitJob.TriggerWord != "zwx_user-1" {
		t.Fatalf("trigger word = %q", p.submitJob.TriggerWord)
	}
	if p.submitJob.WebhookURL != "https://api.example/functions/v1/training-webhook-handler?user_id=user-1" {
		t.Fatalf("webhook url = %q", p.submitJob.WebhookURL)
	}
}

func TestSubmit_EmptyList(t *testing.T) {
	p := &fakeProvider{}
	s := newService(&fakeArchiver{}, p)

	_, err := s.Submit(context.Background(), "user-1", nil)
	if !errors.Is(err, ErrNoSourceImages) {
		t.Fatalf("expected ErrNoSourceImages, got %v", err)
	}
	if p.uploadCalls != 0 || p.submitCalls != 0 {
		t.Fatalf("provider should not be touched on empty input")
	}
}

func TestSubmit_ArchiveFailureStopsPipeline(t *testing.T) {
	fetchErr := &archive.FetchError{Index: 2, URL: "https://img/2.jpg", Status: 404}
	a := &fakeArchiver{err: fetchErr}
	p := &fakeProvider{}
	s := newService(a, p)

	_, err := s.Submit(context.Background(), "user-1", []string{"u1", "u2"})
	if !errors.Is(err, ErrArchiveBuild) {
		t.Fatalf("expected ErrArchiveBuild, got %v", err)
	}
	var fe *archive.FetchError
	if !errors.As(err, &fe) || fe.Index != 2 {
		t.Fatalf("underlying fetch error lost: %v", err)
	}
	// All-or-nothing: nothing is uploaded and no job is submitted.
	if p.uploadCalls != 0 || p.submitCalls != 0 {
		t.Fatalf("provider calls = upload:%d submit:%d; want 0/0", p.uploadCalls, p.submitCalls)
	}
}

func TestSubmit_UploadFailure(t *testing.T) {
	a := &fakeArchiver{out: &archive.Archive{Data: []byte("zip"), Entries: 1}}
	p := &fakeProvider{uploadErr: errors.New("storage 502")}
	s := newService(a, p)

	_, err := s.Submit(context.Background(), "user-1", []string{"u1"})
	if !errors.Is(err, ErrProviderUpload) {
		t.Fatalf("expected ErrProviderUpload, got %v", err)
	}
	if p.submitCalls != 0 {
		t.Fatalf("job must not be submitted after failed upload")
	}
}

func TestSubmit_SubmitFailure(t *testing.T) {
	a := &fakeArchiver{out: &archive.Archive{Data: []byte("zip"), Entries: 1}}
	p := &fakeProvider{uploadURL: "https://storage/a.zip", submitErr: errors.New("queue down")}
	s := newService(a, p)

	_, err := s.Submit(context.Background(), "user-1", []string{"u1"})
	if !errors.Is(err, ErrProviderSubmit) {
		t.Fatalf("expected ErrProviderSubmit, got %v", err)
	}
}

func TestTriggerWord_Deterministic(t *testing.T) {
	s := newService(&fakeArchiver{}, &fakeProvider{})
	first := s.TriggerWord("user-1")
	for i := 0; i < 3; i++ {
		if got := s.TriggerWord("user-1"); got != first {
			t.Fatalf("trigger word changed across calls: %q vs %q", got, first)
		}
	}
	if s.TriggerWord("user-1") == s.TriggerWord("user-2") {
		t.Fatalf("distinct users must not share a trigger word")
	}
}

func TestCallbackURL_EscapesUserID(t *testing.T) {
	s := newService(&fakeArchiver{}, &fakeProvider{})
	got := s.CallbackURL("a b/c")
	want := "https://api.example/functions/v1/training-webhook-handler?user_id=a+b%2Fc"
	if got != want {
		t.Fatalf("CallbackURL = %q; want %q", got, want)
	}
}
