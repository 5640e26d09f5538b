package main

import "testing"

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"short":                                    true,
		"change-me-in-production-change-me-please": true,
		"Kp3v9ZqT7wXb2LmN8rYs4HdF6jGc1AeU0oQi":     false,
	}
	for secret, want := range cases {
		if got := isWeakSecret(secret); got != want {
			t.Fatalf("isWeakSecret(%q) want %v got %v", secret, want, got)
		}
	}
}
