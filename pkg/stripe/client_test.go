package stripe

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestCheckKey(t *testing.T) {
	tests := []struct {
		env   string
		key   string
		valid bool
	}{
		{"test", "sk_test_123", true},
		{"test", "rk_test_123", true},
		{"test", "sk_live_123", false},
		{"live", "sk_live_123", true},
		{"live", "sk_test_123", false},
		{"staging", "sk_test_123", false},
	}
	for _, tt := range tests {
		err := checkKey(tt.env, tt.key)
		if (err == nil) != tt.valid {
			t.Fatalf("checkKey(%q, %q) err=%v, want valid=%v", tt.env, tt.key, err, tt.valid)
		}
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(context.Background(), config.StripeConfig{Env: "test"}, nil); err == nil {
		t.Fatal("expected missing key error")
	}
	c, err := NewClient(context.Background(), config.StripeConfig{APIKey: " sk_test_abc ", Env: " TEST"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment() != "test" {
		t.Fatalf("expected test env, got %q", c.Environment())
	}
}
