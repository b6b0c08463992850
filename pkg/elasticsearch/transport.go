package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrClientClosed is returned by a closed transport client.
var ErrClientClosed = errors.New("elasticsearch: client closed")

// Dialer opens connections to cluster nodes. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// TransportClient talks to cluster nodes over the transport port.
type TransportClient interface {
	ClusterName() string
	Nodes() []string
	Settings() map[string]string
	Ping(ctx context.Context) error
	Close() error
}

type transportClient struct {
	clusterName string
	nodes       []string
	settings    map[string]string
	dialer      Dialer

	mu     sync.Mutex
	closed bool
}

// NewTransportClient builds a client for props and checks that at least one
// node accepts a connection.
func NewTransportClient(ctx context.Context, props DataProperties, dialer Dialer) (TransportClient, error) {
	nodes, err := props.Nodes()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.New("elasticsearch: no cluster nodes configured")
	}
	if dialer == nil {
		dialer = &net.Dialer{Timeout: 5 * time.Second}
	}
	settings := make(map[string]string, len(props.Properties))
	for key, value := range props.Properties {
		settings[key] = value
	}
	client := &transportClient{
		clusterName: props.ClusterName,
		nodes:       nodes,
		settings:    settings,
		dialer:      dialer,
	}
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *transportClient) ClusterName() string { return c.clusterName }

func (c *transportClient) Nodes() []string {
	out := make([]string, len(c.nodes))
	copy(out, c.nodes)
	return out
}

func (c *transportClient) Settings() map[string]string {
	out := make(map[string]string, len(c.settings))
	for key, value := range c.settings {
		out[key] = value
	}
	return out
}

// Ping succeeds as soon as one node accepts a connection.
func (c *transportClient) Ping(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClientClosed
	}

	var errs []error
	for _, node := range c.nodes {
		conn, err := c.dialer.DialContext(ctx, "tcp", node)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", node, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("elasticsearch: no cluster node reachable for %q: %w", c.clusterName, errors.Join(errs...))
}

func (c *transportClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
