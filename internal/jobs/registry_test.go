package jobs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
)

type stubHandler struct{ jobType string }

func (s *stubHandler) Type() string       { return s.jobType }
func (s *stubHandler) Run(*Context) error { return nil }

func TestRegistryRejectsDuplicateTypes(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubHandler{jobType: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&stubHandler{jobType: "a"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	if _, ok := r.Get("a"); !ok {
		t.Fatalf("expected handler for type a")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatalf("expected no handler for unknown type")
	}
}

func TestVariantKeyIsDeterministic(t *testing.T) {
	assetID := uuid.New()

	a := VariantKey(assetID, domain.VariantThumbnail, "jpg")
	b := VariantKey(assetID, domain.VariantThumbnail, "jpg")
	if a != b {
		t.Fatalf("same inputs must yield the same key: %q vs %q", a, b)
	}
	want := fmt.Sprintf("variants/%s/thumbnail.jpg", assetID)
	if a != want {
		t.Fatalf("got %q want %q", a, want)
	}
	if VariantKey(assetID, domain.VariantPoster, "png") != fmt.Sprintf("variants/%s/poster.png", assetID) {
		t.Fatalf("poster key mismatch")
	}
}

func TestPermanentWrapsAndUnwraps(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatalf("Permanent(nil) must stay nil")
	}

	cause := errors.New("image does not decode")
	err := Permanent(fmt.Errorf("handler: %w", cause))

	var perm *permanentError
	if !errors.As(err, &perm) {
		t.Fatalf("expected a permanent error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must survive wrapping")
	}
}
