// Package viewcache stores rendered read views in Redis and purges them across nodes.
package viewcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CheckoutTag covers the checkout page view.
const CheckoutTag = "checkout"

const (
	tagAttribute   = "tag"
	defaultTimeout = 5 * time.Second
)

// AddressesTag covers the saved-address listing of one user.
func AddressesTag(userID uuid.UUID) string {
	return "account.addresses:" + userID.String()
}

type keyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ViewKey(tag string) string
}

type publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	InvalidationTopic() string
}

type message struct {
	Tag         string    `json:"tag"`
	Invalidated time.Time `json:"invalidated_at"`
}

// Cache reads, writes and invalidates tagged views. The publisher is optional; without it
// invalidation only clears the shared Redis copy.
type Cache struct {
	keys    keyStore
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

func New(keys keyStore, pub publisher, logg *logger.Logger) (*Cache, error) {
	if keys == nil {
		return nil, errors.New("view cache key store is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Cache{
		keys:    keys,
		pub:     pub,
		logg:    logg,
		timeout: defaultTimeout,
		now:     time.Now,
	}, nil
}

// Load decodes the cached view for tag into dst. It reports false on a miss.
func (c *Cache) Load(ctx context.Context, tag string, dst any) (bool, error) {
	raw, err := c.keys.Get(ctx, c.keys.ViewKey(tag))
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding cached view %q: %w", tag, err)
	}
	return true, nil
}

// Store caches value under tag for ttl.
func (c *Cache) Store(ctx context.Context, tag string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding view %q: %w", tag, err)
	}
	return c.keys.Set(ctx, c.keys.ViewKey(tag), payload, ttl)
}

// Invalidate deletes each tag from Redis and announces it on the invalidation topic.
// Every tag is attempted; failures are combined.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	tags = compact(tags)
	if len(tags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tags))
	for _, tag := range tags {
		keys = append(keys, c.keys.ViewKey(tag))
	}

	var errs error
	if err := c.keys.Del(ctx, keys...); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("deleting cached views: %w", err))
	}

	if c.pub == nil {
		return errs
	}
	topic := c.pub.InvalidationTopic()
	for _, tag := range tags {
		data, err := json.Marshal(message{Tag: tag, Invalidated: c.now().UTC()})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, err := c.pub.Publish(ctx, topic, data, map[string]string{tagAttribute: tag}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("announcing %q: %w", tag, err))
		}
	}
	return errs
}

// InvalidateAsync runs Invalidate in the background, detached from ctx cancellation,
// and logs any failure. The returned channel closes when the work is done.
func (c *Cache) InvalidateAsync(ctx context.Context, tags ...string) <-chan struct{} {
	done := make(chan struct{})
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	go func() {
		defer close(done)
		defer cancel()
		if err := c.Invalidate(bg, tags...); err != nil {
			bg = c.logg.WithField(bg, "tags", strings.Join(tags, ","))
			c.logg.Error(bg, "viewcache.invalidate_failed", err)
		}
	}()
	return done
}

func compact(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
