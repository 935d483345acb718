package domain

import "testing"

func TestUserProfile_TableName(t *testing.T) {
	if got := (UserProfile{}).TableName(); got != "profiles" {
		t.Fatalf("TableName() = %q; want %q", got, "profiles")
	}
}

func TestIdempotency_TableName(t *testing.T) {
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("TableName() = %q; want %q", got, "idempotency")
	}
}

func TestUserProfile_Trained(t *testing.T) {
	var p UserProfile
	if p.Trained() {
		t.Fatalf("nil model id should not count as trained")
	}
	empty := ""
	p.TrainedModelID = &empty
	if p.Trained() {
		t.Fatalf("empty model id should not count as trained")
	}
	url := "https://provider/model.safetensors"
	p.TrainedModelID = &url
	if !p.Trained() {
		t.Fatalf("non-empty model id should count as trained")
	}
}
