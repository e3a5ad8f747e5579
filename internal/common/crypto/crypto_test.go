package crypto

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlibekovAA/sessionauth/internal/common/constants"
)

func TestBcryptHasher_SaltDiffersPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	first, err := h.Hash(ctx, "longpass1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash(ctx, "longpass1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if first == second {
		t.Error("expected two digests of the same password to differ")
	}
	if err := h.Compare(ctx, first, "longpass1"); err != nil {
		t.Errorf("expected first digest to verify, got %v", err)
	}
	if err := h.Compare(ctx, second, "longpass1"); err != nil {
		t.Errorf("expected second digest to verify, got %v", err)
	}
}

func TestBcryptHasher_Mismatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "longpass1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	err = h.Compare(ctx, digest, "longpass2")
	if !errors.Is(err, ErrMismatchedPassword) {
		t.Errorf("expected ErrMismatchedPassword, got %v", err)
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)

	err := h.Compare(context.Background(), "not-a-digest", "longpass1")
	if err == nil {
		t.Fatal("expected error for malformed digest")
	}
	if errors.Is(err, ErrMismatchedPassword) {
		t.Error("malformed digest must not look like a plain mismatch")
	}
}

func TestBcryptHasher_CancelledWhileWaitingForSlot(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)

	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "longpass1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewBcryptHasher(100, 0)

	if h.cost != bcrypt.DefaultCost {
		t.Errorf("expected default cost, got %d", h.cost)
	}
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("token %q is not unpadded base64url", token)
		}
		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if len(raw) != constants.SessionTokenBytes {
			t.Fatalf("expected %d random bytes, got %d", constants.SessionTokenBytes, len(raw))
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}

func TestUUIDGenerator_NewID(t *testing.T) {
	g := NewUUIDGenerator()

	id, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected valid uuid, got %q", id)
	}
}
