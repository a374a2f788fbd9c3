package pubsub

import (
	"context"
	"testing"
)

func TestTopicName(t *testing.T) {
	cases := map[string]string{
		"sf-view-invalidations":                  "projects/shop-prod/topics/sf-view-invalidations",
		" sf-view-invalidations ":                "projects/shop-prod/topics/sf-view-invalidations",
		"projects/other/topics/sf-invalidations": "projects/other/topics/sf-invalidations",
		"":                                       "",
	}
	for in, want := range cases {
		if got := topicName("shop-prod", in); got != want {
			t.Fatalf("topicName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := topicName("", "topic"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.InvalidationTopic() != "" {
		t.Fatal("expected empty topic")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if _, err := c.Publish(context.Background(), "topic", nil, nil); err == nil {
		t.Fatal("expected publish error for nil client")
	}
}
