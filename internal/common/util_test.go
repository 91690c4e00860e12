package common

import (
	"errors"
	"fmt"
	"testing"
)

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	buf, err := GenerateRandByteArray(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf) != n {
		t.Fatalf("expected length %d, got %d", n, len(buf))
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- errors ----------

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("refresh token consumed: %w", fmt.Errorf("db error: %w", ErrSessionTerminated))
	if !errors.Is(wrapped, ErrSessionTerminated) {
		t.Fatalf("expected ErrSessionTerminated to match through wrapping")
	}
	if errors.Is(wrapped, ErrInvalidToken) {
		t.Fatalf("unexpected match with ErrInvalidToken")
	}
}
