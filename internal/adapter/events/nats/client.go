package nats

import (
	"context"
	"encoding/json"
	"fmt"

	natspkg "github.com/nats-io/nats.go"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/port"
)

// Client publishes run events as JSON under <prefix>.started,
// <prefix>.observed and <prefix>.finished.
type Client struct {
	nc     *natspkg.Conn
	prefix string
}

func NewClient(url, prefix string) (*Client, error) {
	nc, err := natspkg.Connect(url, natspkg.Name("apiblocks"))
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc, prefix: prefix}, nil
}

var _ port.Publisher = (*Client)(nil)

func (c *Client) Close() {
	c.nc.Close()
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

// Subject returns the subject an event kind is published on.
func (c *Client) Subject(kind string) string {
	return Subject(c.prefix, kind)
}

func Subject(prefix, kind string) string {
	if prefix == "" {
		prefix = "apiblocks.runs"
	}
	return prefix + "." + kind
}

func (c *Client) PublishRunStarted(ctx context.Context, event domain.RunStarted) error {
	return c.publish(c.Subject("started"), event)
}

func (c *Client) PublishRunObserved(ctx context.Context, event domain.RunObserved) error {
	return c.publish(c.Subject("observed"), event)
}

func (c *Client) PublishRunFinished(ctx context.Context, event domain.RunFinished) error {
	return c.publish(c.Subject("finished"), event)
}

func (c *Client) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := c.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers every event under the prefix, with its subject.
func (c *Client) Subscribe(handler func(subject string, data []byte) error) (*natspkg.Subscription, error) {
	return c.nc.Subscribe(c.Subject(">"), func(msg *natspkg.Msg) {
		_ = handler(msg.Subject, msg.Data)
	})
}

// Flush waits until the server has processed every published message.
func (c *Client) Flush() error {
	return c.nc.Flush()
}
