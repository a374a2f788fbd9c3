package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var errNotInitialized = errors.New("pubsub client not initialized")

// Client publishes view invalidations. Publishers are created lazily per topic and
// stopped on Close so pending messages are flushed.
type Client struct {
	client     *pubsub.Client
	projectID  string
	topic      string
	publishers sync.Map // full topic name -> *pubsub.Publisher
}

// NewClient fails when the invalidation topic is missing instead of creating it;
// topics are provisioned with the infrastructure.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errors.New("gcp project id is required")
	}
	var opts []option.ClientOption
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	ps, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: ps, projectID: projectID, topic: strings.TrimSpace(cfg.InvalidationTopic)}
	if err := c.Ping(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", c.topic), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) InvalidationTopic() string {
	if c == nil {
		return ""
	}
	return c.topic
}

// Publish blocks until the server acknowledges the message and returns its id.
func (c *Client) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	pub, err := c.publisher(topic)
	if err != nil {
		return "", err
	}
	id, err := pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing to %q: %w", topic, err)
	}
	return id, nil
}

// Ping looks up the invalidation topic through the admin API.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	name := topicName(c.projectID, c.topic)
	if name == "" {
		return errors.New("pubsub invalidation topic is required")
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
	switch {
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %q does not exist", c.topic)
	case err != nil:
		return fmt.Errorf("checking topic %q: %w", c.topic, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.publishers.Range(func(key, value any) bool {
		value.(*pubsub.Publisher).Stop()
		c.publishers.Delete(key)
		return true
	})
	return c.client.Close()
}

func (c *Client) publisher(topic string) (*pubsub.Publisher, error) {
	if c == nil || c.client == nil {
		return nil, errNotInitialized
	}
	name := topicName(c.projectID, topic)
	if name == "" {
		return nil, fmt.Errorf("invalid topic %q", topic)
	}
	if pub, ok := c.publishers.Load(name); ok {
		return pub.(*pubsub.Publisher), nil
	}
	fresh := c.client.Publisher(name)
	pub, loaded := c.publishers.LoadOrStore(name, fresh)
	if loaded {
		fresh.Stop()
	}
	return pub.(*pubsub.Publisher), nil
}

// topicName expands a short topic id to projects/<project>/topics/<id>.
// Fully qualified names pass through.
func topicName(projectID, topic string) string {
	topic = strings.TrimSpace(topic)
	switch {
	case topic == "":
		return ""
	case strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/"):
		return topic
	case strings.TrimSpace(projectID) == "":
		return ""
	}
	return "projects/" + strings.TrimSpace(projectID) + "/topics/" + topic
}
