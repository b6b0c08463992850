package elasticsearch_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/goliatone/go-autoconf"
	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestElasticsearchIntegration resolves against a live cluster.
// To run: ES_INTEGRATION_TEST=1 with Elasticsearch on localhost:9200 (REST)
// and localhost:9300 (transport), or override with ES_REST_URI and
// ES_CLUSTER_NODES.
func TestElasticsearchIntegration(t *testing.T) {
	if os.Getenv("ES_INTEGRATION_TEST") == "" {
		t.Skip("Skipping integration test. Set ES_INTEGRATION_TEST=1 to enable.")
	}
	restURI := envOr("ES_REST_URI", "http://localhost:9200")
	nodes := envOr("ES_CLUSTER_NODES", "localhost:9300")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snapshot := autoconf.MustParseProperties(
		"data.elasticsearch.cluster-nodes="+nodes,
		"data.elasticsearch.cluster-name=docker-cluster",
		"elasticsearch.rest.uris="+restURI,
	)
	result, err := autoconf.NewResolver().Resolve(ctx, elasticsearch.Descriptors(), snapshot)
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Close() })

	assert.Equal(t, 1, autoconf.Count[*elasticsearch.TransportTemplate](result))
	assert.Equal(t, 1, autoconf.Count[*elasticsearch.MappingContext](result))
	assert.Equal(t, 1, autoconf.Count[elasticsearch.Converter](result))

	tpl := autoconf.MustGet[*elasticsearch.RestTemplate](result)
	require.NoError(t, tpl.Ping(ctx))

	doc := &book{ISBN: "integration-" + time.Now().Format("150405.000"), Title: "Snow Crash"}
	id, err := tpl.Save(ctx, doc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tpl.Delete(context.Background(), book{}, id) })

	var loaded book
	require.NoError(t, tpl.Get(ctx, id, &loaded))
	assert.Equal(t, doc.Title, loaded.Title)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
