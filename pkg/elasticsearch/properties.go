package elasticsearch

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-autoconf"
)

// Property prefixes and keys.
const (
	DataPrefix = "data.elasticsearch"
	RestPrefix = "elasticsearch.rest"

	PropertyClusterNodes = DataPrefix + ".cluster-nodes"
	PropertyClusterName  = DataPrefix + ".cluster-name"
	PropertyRestURIs     = RestPrefix + ".uris"
)

// DefaultTransportPort is used for cluster nodes listed without a port.
const DefaultTransportPort = 9300

// DataProperties configures the transport client.
type DataProperties struct {
	ClusterName  string            `mapstructure:"cluster-name" validate:"required" desc:"Elasticsearch cluster name."`
	ClusterNodes []string          `mapstructure:"cluster-nodes" desc:"Comma-separated list of cluster node addresses."`
	Properties   map[string]string `mapstructure:"properties" desc:"Additional properties used to configure the client."`
}

// DefaultDataProperties returns the built-in transport defaults.
func DefaultDataProperties() DataProperties {
	return DataProperties{ClusterName: "elasticsearch"}
}

// Nodes returns the configured nodes as host:port, applying the default
// transport port.
func (p DataProperties) Nodes() ([]string, error) {
	var nodes []string
	for _, raw := range p.ClusterNodes {
		node := strings.TrimSpace(raw)
		if node == "" {
			continue
		}
		host, port, err := net.SplitHostPort(node)
		if err != nil {
			if !strings.Contains(err.Error(), "missing port") {
				return nil, fmt.Errorf("elasticsearch: invalid cluster node %q: %w", node, err)
			}
			host, port = node, strconv.Itoa(DefaultTransportPort)
		}
		if host == "" {
			return nil, fmt.Errorf("elasticsearch: invalid cluster node %q: empty host", node)
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return nil, fmt.Errorf("elasticsearch: invalid cluster node %q: bad port", node)
		}
		nodes = append(nodes, net.JoinHostPort(host, port))
	}
	return nodes, nil
}

// RestProperties configures the REST client.
type RestProperties struct {
	URIs              []string      `mapstructure:"uris" validate:"min=1" desc:"Comma-separated list of the Elasticsearch instances to use."`
	Username          string        `mapstructure:"username" desc:"Login username of the Elasticsearch server."`
	Password          string        `mapstructure:"password" validate:"excluded_without=Username" desc:"Login password of the Elasticsearch server."`
	ConnectionTimeout time.Duration `mapstructure:"connection-timeout" validate:"gt=0" desc:"Connection timeout."`
	ReadTimeout       time.Duration `mapstructure:"read-timeout" validate:"gt=0" desc:"Read timeout."`
}

// DefaultRestProperties returns the built-in REST defaults.
func DefaultRestProperties() RestProperties {
	return RestProperties{
		URIs:              []string{"http://localhost:9200"},
		ConnectionTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
	}
}

// Addresses returns the trimmed, non-empty URIs.
func (p RestProperties) Addresses() []string {
	out := make([]string, 0, len(p.URIs))
	for _, uri := range p.URIs {
		if uri = strings.TrimSpace(uri); uri != "" {
			out = append(out, uri)
		}
	}
	return out
}

// String hides the password.
func (p RestProperties) String() string {
	password := ""
	if p.Password != "" {
		password = "******"
	}
	return fmt.Sprintf("RestProperties{URIs:%v Username:%q Password:%q ConnectionTimeout:%s ReadTimeout:%s}",
		p.Addresses(), p.Username, password, p.ConnectionTimeout, p.ReadTimeout)
}

// BindDataProperties reads DataPrefix from snapshot over the given defaults
// (strongest first) and the built-in ones.
func BindDataProperties(snapshot autoconf.Snapshot, defaults ...DataProperties) (DataProperties, error) {
	return autoconf.Bind(snapshot, DataPrefix, append(append([]DataProperties{}, defaults...), DefaultDataProperties())...)
}

// BindRestProperties reads RestPrefix from snapshot over the given defaults
// (strongest first) and the built-in ones.
func BindRestProperties(snapshot autoconf.Snapshot, defaults ...RestProperties) (RestProperties, error) {
	return autoconf.Bind(snapshot, RestPrefix, append(append([]RestProperties{}, defaults...), DefaultRestProperties())...)
}
