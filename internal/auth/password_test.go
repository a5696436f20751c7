package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost, 2, nil)
}

func TestPasswordHasher_HashThenVerify(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	hash, err := h.Hash(ctx, "password123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Verify(ctx, "password123", hash) {
		t.Error("Verify(correct) = false, want true")
	}
	if h.Verify(ctx, "password124", hash) {
		t.Error("Verify(wrong) = true, want false")
	}
}

// 同じ平文でもソルトが毎回異なる
func TestPasswordHasher_SamePlaintextDifferentHashes(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	h1, err := h.Hash(ctx, "s3cret-pass")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	h2, err := h.Hash(ctx, "s3cret-pass")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for the same plaintext")
	}
	if !h.Verify(ctx, "s3cret-pass", h1) || !h.Verify(ctx, "s3cret-pass", h2) {
		t.Error("both hashes should verify")
	}
}

func TestPasswordHasher_Hash_RejectsInvalidInput(t *testing.T) {
	h := newTestHasher()

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"73 bytes", strings.Repeat("a", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Hash(context.Background(), tt.plaintext)
			if !errors.Is(err, ErrInvalidPassword) {
				t.Errorf("error = %v, want ErrInvalidPassword", err)
			}
		})
	}
}

func TestPasswordHasher_Hash_Accepts72Bytes(t *testing.T) {
	h := newTestHasher()
	pw := strings.Repeat("b", 72)

	hash, err := h.Hash(context.Background(), pw)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !h.Verify(context.Background(), pw, hash) {
		t.Error("72-byte password should verify")
	}
}

func TestPasswordHasher_Verify_MalformedHashReturnsFalse(t *testing.T) {
	h := newTestHasher()

	for _, stored := range []string{"", "not-a-bcrypt-hash", "$2a$04$short"} {
		if h.Verify(context.Background(), "password123", stored) {
			t.Errorf("Verify against %q = true, want false", stored)
		}
	}
}

func TestPasswordHasher_CancelledContext(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1, nil)
	hash, err := h.Hash(context.Background(), "password123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	// 唯一の枠を占有した状態でキャンセル済みコンテキストを渡す
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, "password123"); !errors.Is(err, context.Canceled) {
		t.Errorf("Hash error = %v, want context.Canceled", err)
	}
	if h.Verify(ctx, "password123", hash) {
		t.Error("Verify with cancelled context should return false")
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	if got := NewPasswordHasher(1, 1, nil).cost; got != bcrypt.MinCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MinCost)
	}
	if got := NewPasswordHasher(99, 1, nil).cost; got != bcrypt.MaxCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MaxCost)
	}
}

func TestPasswordHasher_ConcurrentUse(t *testing.T) {
	h := newTestHasher()
	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash(context.Background(), "concurrent-pass")
			if err != nil {
				errs <- err
				return
			}
			if !h.Verify(context.Background(), "concurrent-pass", hash) {
				errs <- errors.New("verify failed")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
