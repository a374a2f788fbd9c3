package viewcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fakeKeys struct {
	mu      sync.Mutex
	values  map[string]string
	deleted []string
	delErr  error
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{values: map[string]string{}}
}

func (f *fakeKeys) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKeys) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	return nil
}

func (f *fakeKeys) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeKeys) ViewKey(tag string) string { return "sf:view:" + tag }

type publishCall struct {
	topic string
	data  []byte
	attrs map[string]string
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{topic: topic, data: data, attrs: attrs})
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func (f *fakePublisher) InvalidationTopic() string { return "sf-view-invalidations" }

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: buf})
}

func TestInvalidate_DeletesAndAnnouncesEachTag(t *testing.T) {
	keys := newFakeKeys()
	pub := &fakePublisher{}
	cache, err := New(keys, pub, testLogger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	userTag := AddressesTag(uuid.MustParse("6f1c1c4e-4a55-4c1b-9d2e-2b0b2f1f0a11"))

	if err := cache.Invalidate(context.Background(), userTag, CheckoutTag, " ", CheckoutTag); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	wantKeys := []string{"sf:view:account.addresses:6f1c1c4e-4a55-4c1b-9d2e-2b0b2f1f0a11", "sf:view:checkout"}
	if strings.Join(keys.deleted, ",") != strings.Join(wantKeys, ",") {
		t.Fatalf("unexpected deleted keys %v", keys.deleted)
	}
	if len(pub.calls) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(pub.calls))
	}
	call := pub.calls[1]
	if call.topic != "sf-view-invalidations" || call.attrs["tag"] != CheckoutTag {
		t.Fatalf("unexpected publish %+v", call)
	}
	var msg message
	if err := json.Unmarshal(call.data, &msg); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if msg.Tag != CheckoutTag {
		t.Fatalf("unexpected payload tag %q", msg.Tag)
	}
}

func TestInvalidate_CombinesFailures(t *testing.T) {
	delErr := errors.New("redis down")
	pubErr := errors.New("pubsub down")
	cache, _ := New(&fakeKeys{values: map[string]string{}, delErr: delErr}, &fakePublisher{err: pubErr}, testLogger(&bytes.Buffer{}))

	err := cache.Invalidate(context.Background(), CheckoutTag)
	if !errors.Is(err, delErr) || !errors.Is(err, pubErr) {
		t.Fatalf("expected both failures, got %v", err)
	}
}

func TestInvalidate_WithoutPublisher(t *testing.T) {
	keys := newFakeKeys()
	cache, _ := New(keys, nil, testLogger(&bytes.Buffer{}))

	if err := cache.Invalidate(context.Background(), CheckoutTag); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if len(keys.deleted) != 1 {
		t.Fatalf("expected key deletion, got %v", keys.deleted)
	}
}

func TestInvalidateAsync_SurvivesCancelledContextAndLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	pub := &fakePublisher{err: errors.New("pubsub down")}
	cache, _ := New(newFakeKeys(), pub, testLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := cache.InvalidateAsync(ctx, CheckoutTag)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async invalidation did not finish")
	}
	if !strings.Contains(buf.String(), "viewcache.invalidate_failed") {
		t.Fatalf("expected failure log, got %q", buf.String())
	}
}

func TestLoadAndStore(t *testing.T) {
	keys := newFakeKeys()
	cache, _ := New(keys, nil, testLogger(&bytes.Buffer{}))
	ctx := context.Background()

	var out []string
	hit, err := cache.Load(ctx, CheckoutTag, &out)
	if err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	if err := cache.Store(ctx, CheckoutTag, []string{"a", "b"}, time.Minute); err != nil {
		t.Fatalf("Store: %v", err)
	}
	hit, err = cache.Load(ctx, CheckoutTag, &out)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if len(out) != 2 || out[1] != "b" {
		t.Fatalf("unexpected cached value %v", out)
	}

	if err := cache.Invalidate(ctx, CheckoutTag); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	hit, _ = cache.Load(ctx, CheckoutTag, &out)
	if hit {
		t.Fatal("expected miss after invalidation")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, testLogger(&bytes.Buffer{})); err == nil {
		t.Fatal("expected error without key store")
	}
	if _, err := New(newFakeKeys(), nil, nil); err == nil {
		t.Fatal("expected error without logger")
	}
}
