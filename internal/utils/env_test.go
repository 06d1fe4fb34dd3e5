package utils

import "testing"

func TestSafeEnv(t *testing.T) {
	t.Setenv("PAIRSYNC_TEST_KEY", "value")
	if got := SafeEnv("PAIRSYNC_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := SafeEnv("PAIRSYNC_TEST_KEY_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
