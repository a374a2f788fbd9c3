package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Secret and restricted key prefixes accepted per environment.
var keyPrefixes = map[string][]string{
	"test": {"sk_test_", "rk_test_"},
	"live": {"sk_live_", "rk_live_"},
}

// Client holds the Stripe account configuration. The checkout session resource
// reads the package level key, so New sets it once at startup.
type Client struct {
	env string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("stripe api key is required")
	}
	if err := checkKey(env, key); err != nil {
		return nil, err
	}

	stripe.Key = key
	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", env), "stripe client initialized")
	}
	return &Client{env: env}, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.env
}

// checkKey stops a live key from running in test and the reverse.
func checkKey(env, key string) error {
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return fmt.Errorf("stripe environment %q is not test or live", env)
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return fmt.Errorf("stripe %s environment needs one of %s keys", env, strings.Join(prefixes, ", "))
}
