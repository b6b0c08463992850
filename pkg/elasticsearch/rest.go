package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// RestClient wraps the official client configured from RestProperties.
type RestClient struct {
	es    *elasticsearch.Client
	props RestProperties
}

// NewRestClient builds a client. A nil transport gets an *http.Transport
// honouring the connection and read timeouts. No request is sent.
func NewRestClient(props RestProperties, transport http.RoundTripper) (*RestClient, error) {
	addresses := props.Addresses()
	if len(addresses) == 0 {
		return nil, errors.New("elasticsearch: no rest uris configured")
	}
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: props.ConnectionTimeout}).DialContext,
			ResponseHeaderTimeout: props.ReadTimeout,
			MaxIdleConnsPerHost:   10,
		}
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  props.Username,
		Password:  props.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create rest client: %w", err)
	}
	return &RestClient{es: es, props: props}, nil
}

// Client exposes the underlying client.
func (c *RestClient) Client() *elasticsearch.Client { return c.es }

// Properties returns the properties the client was built from.
func (c *RestClient) Properties() RestProperties { return c.props }

// Ping checks the cluster answers.
func (c *RestClient) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: ping: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return responseError("ping", res)
	}
	return nil
}

// ResponseError is a non-2xx answer from the cluster.
type ResponseError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("elasticsearch: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return &ResponseError{Op: op, StatusCode: res.StatusCode, Body: string(body)}
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
