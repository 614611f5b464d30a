package domain

import (
	"testing"
	"time"
)

func TestRetryPolicyNormalizedDefaults(t *testing.T) {
	policy := RetryPolicy{}.Normalized()
	if policy.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("max attempts = %d, want %d", policy.MaxAttempts, DefaultMaxAttempts)
	}
	if policy.BaseBackoff != DefaultBaseBackoff {
		t.Fatalf("base backoff = %v, want %v", policy.BaseBackoff, DefaultBaseBackoff)
	}
	if policy.MaxBackoff != DefaultMaxBackoff {
		t.Fatalf("max backoff = %v, want %v", policy.MaxBackoff, DefaultMaxBackoff)
	}
}

func TestRetryPolicyNormalizedRaisesCapToBase(t *testing.T) {
	policy := RetryPolicy{BaseBackoff: time.Minute, MaxBackoff: time.Second}.Normalized()
	if policy.MaxBackoff != time.Minute {
		t.Fatalf("max backoff = %v, want %v", policy.MaxBackoff, time.Minute)
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3}
	if policy.Exhausted(0) {
		t.Fatal("first failure must leave attempts")
	}
	if policy.Exhausted(1) {
		t.Fatal("second failure must leave attempts")
	}
	if !policy.Exhausted(2) {
		t.Fatal("third failure must exhaust a 3-attempt policy")
	}
}

func TestRetryPolicyBackoffDoublesAndCaps(t *testing.T) {
	policy := RetryPolicy{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := policy.Backoff(tc.attempts); got != tc.want {
			t.Fatalf("backoff(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}
