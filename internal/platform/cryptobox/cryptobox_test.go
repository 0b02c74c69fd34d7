package cryptobox

import (
	"encoding/base64"
	"strings"
	"testing"
)

const testKeyHex = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := New(testKeyHex)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, plain := range []string{"", "x", "smtp password with spaces", strings.Repeat("a", 4096)} {
		sealed, err := box.Seal(plain)
		if err != nil {
			t.Fatalf("Seal(%q): %v", plain, err)
		}
		if sealed == plain && plain != "" {
			t.Fatalf("ciphertext equals plaintext")
		}
		opened, err := box.Open(sealed)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if opened != plain {
			t.Fatalf("round trip mismatch: got %q want %q", opened, plain)
		}
	}
}

func TestSealProducesFreshNonce(t *testing.T) {
	box, err := New(testKeyHex)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, _ := box.Seal("same value")
	b, _ := box.Seal("same value")
	if a == b {
		t.Fatalf("two seals of the same value must differ")
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	box, err := New(testKeyHex)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sealed, err := box.Seal("secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0x01
	if _, err := box.Open(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Fatalf("expected tampered ciphertext to fail")
	}
	if _, err := box.Open("not base64!!"); err == nil {
		t.Fatalf("expected garbage input to fail")
	}
	if _, err := box.Open("AAAA"); err == nil {
		t.Fatalf("expected short ciphertext to fail")
	}
}

func TestNewAcceptsBase64Key(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	if _, err := New(key); err != nil {
		t.Fatalf("base64 key rejected: %v", err)
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "tooshort", base64.StdEncoding.EncodeToString([]byte("16byteslong!!!!!"))} {
		if _, err := New(key); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}
