package coreapi

import (
	"fmt"
	"testing"
)

func TestFriendlyMatchesKnownFragments(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"withdrawal before maturity is not allowed", "This account has not reached its maturity date yet."},
		{"opening amount is below the product minimum deposit", "The amount is below the product's minimum deposit."},
		{"insufficient balance", "The account balance is not sufficient for this withdrawal."},
		{"an account with this email already exists", "An account with this email already exists."},
		{"something completely unexpected", genericBusinessMessage},
	}
	for _, tc := range cases {
		if got := Friendly(newBusinessError(tc.message)); got != tc.want {
			t.Errorf("Friendly(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestFriendlyUnwrapsSentinels(t *testing.T) {
	wrapped := fmt.Errorf("list accounts: %w", ErrUnauthorized)
	if got := Friendly(wrapped); got != "Your session has expired. Please sign in again." {
		t.Fatalf("Friendly(wrapped unauthorized) = %q", got)
	}
	if got := Friendly(fmt.Errorf("boom: %w", ErrUnavailable)); got != "The bank service is temporarily unavailable. Please try again." {
		t.Fatalf("Friendly(unavailable) = %q", got)
	}
}
