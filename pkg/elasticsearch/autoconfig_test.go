package elasticsearch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-autoconf"
	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, snapshot autoconf.Snapshot, opts []elasticsearch.Option, user ...autoconf.Component) *autoconf.Result {
	t.Helper()
	result, err := autoconf.NewResolver().Resolve(context.Background(), elasticsearch.Descriptors(opts...), snapshot, user...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Close() })
	return result
}

func clusterSnapshot() autoconf.Snapshot {
	return autoconf.MustParseProperties(
		"data.elasticsearch.cluster-nodes=localhost:9300",
		"data.elasticsearch.cluster-name=docker-cluster",
	)
}

func TestClusterNodesRegistersTransportStack(t *testing.T) {
	dialer := newFakeDialer("localhost:9300")
	result := resolve(t, clusterSnapshot(), []elasticsearch.Option{elasticsearch.WithDialer(dialer)})

	assert.Equal(t, 1, autoconf.Count[*elasticsearch.TransportTemplate](result))
	assert.Equal(t, 1, autoconf.Count[*elasticsearch.MappingContext](result))
	assert.Equal(t, 1, autoconf.Count[elasticsearch.Converter](result))
	assert.Equal(t, 1, autoconf.Count[elasticsearch.TransportClient](result))

	tpl := autoconf.MustGet[*elasticsearch.TransportTemplate](result)
	assert.Equal(t, "docker-cluster", tpl.ClusterName())
	assert.Equal(t, []string{"localhost:9300"}, tpl.Nodes())
	assert.Same(t, autoconf.MustGet[elasticsearch.TransportClient](result), tpl.Client())
	assert.Equal(t, []string{"localhost:9300"}, dialer.Dialed())

	assert.Equal(t, []string{
		elasticsearch.ClientName,
		elasticsearch.RestClientName,
		elasticsearch.MappingContextName,
		elasticsearch.ConverterName,
		elasticsearch.TemplateName,
		elasticsearch.RestTemplateName,
	}, result.Names())
	assert.Empty(t, result.Report.Negative())
}

func TestWithoutClusterNodesTransportIsNeverRegistered(t *testing.T) {
	dialer := newFakeDialer()
	result := resolve(t, autoconf.NewSnapshot(), []elasticsearch.Option{elasticsearch.WithDialer(dialer)})

	assert.False(t, autoconf.Has[*elasticsearch.TransportTemplate](result))
	assert.False(t, autoconf.Has[elasticsearch.TransportClient](result))
	assert.Empty(t, dialer.Dialed())

	entry, ok := result.Report.Entry(elasticsearch.ClientName)
	require.True(t, ok)
	assert.Equal(t, autoconf.OutcomeNoMatch, entry.Outcome)
	assert.Contains(t, entry.Message, elasticsearch.PropertyClusterNodes)

	entry, ok = result.Report.Entry(elasticsearch.TemplateName)
	require.True(t, ok)
	assert.Equal(t, autoconf.OutcomeNoMatch, entry.Outcome)
	assert.Equal(t, elasticsearch.DataConfiguration, entry.Configuration)
}

func TestRestTemplateAndConverterAlwaysRegisteredOnce(t *testing.T) {
	cases := map[string]autoconf.Snapshot{
		"empty":         autoconf.NewSnapshot(),
		"cluster nodes": clusterSnapshot(),
		"rest only":     autoconf.MustParseProperties("elasticsearch.rest.uris=http://search:9200"),
	}
	for name, snapshot := range cases {
		t.Run(name, func(t *testing.T) {
			result := resolve(t, snapshot, []elasticsearch.Option{elasticsearch.WithDialer(newFakeDialer("localhost:9300"))})
			assert.Equal(t, 1, autoconf.Count[*elasticsearch.RestTemplate](result))
			assert.Equal(t, 1, autoconf.Count[elasticsearch.Converter](result))
			assert.Equal(t, []string{elasticsearch.RestTemplateName}, autoconf.NamesOf[*elasticsearch.RestTemplate](result))
		})
	}
}

func TestRestClientIsBuiltWithoutContactingTheCluster(t *testing.T) {
	cluster, server := newFakeCluster(t)
	result := resolve(t, autoconf.MustParseProperties("elasticsearch.rest.uris="+server.URL), nil)

	client := autoconf.MustGet[*elasticsearch.RestClient](result)
	assert.Equal(t, []string{server.URL}, client.Properties().Addresses())
	assert.Empty(t, cluster.requests())
}

func TestUserTransportTemplateOverride(t *testing.T) {
	client, err := elasticsearch.NewTransportClient(context.Background(), elasticsearch.DataProperties{
		ClusterName:  "user-cluster",
		ClusterNodes: []string{"user:9300"},
	}, newFakeDialer("user:9300"))
	require.NoError(t, err)
	mapping, err := elasticsearch.NewMappingContext()
	require.NoError(t, err)
	userTemplate := elasticsearch.NewTransportTemplate(client, elasticsearch.NewMappingConverter(mapping))

	for name, tc := range map[string]struct {
		snapshot      autoconf.Snapshot
		clientOutcome autoconf.OutcomeKind
	}{
		"empty":         {snapshot: autoconf.NewSnapshot(), clientOutcome: autoconf.OutcomeNoMatch},
		"cluster nodes": {snapshot: clusterSnapshot(), clientOutcome: autoconf.OutcomeRegistered},
	} {
		t.Run(name, func(t *testing.T) {
			result := resolve(t, tc.snapshot,
				[]elasticsearch.Option{elasticsearch.WithDialer(newFakeDialer("localhost:9300"))},
				autoconf.User(elasticsearch.TemplateName, userTemplate),
			)

			require.Equal(t, []string{elasticsearch.TemplateName}, autoconf.NamesOf[*elasticsearch.TransportTemplate](result))
			got, ok := autoconf.Named[*elasticsearch.TransportTemplate](result, elasticsearch.TemplateName)
			require.True(t, ok)
			assert.Same(t, userTemplate, got)

			entry, _ := result.Report.Entry(elasticsearch.TemplateName)
			assert.Equal(t, autoconf.OutcomeOverridden, entry.Outcome)
			assert.Equal(t, []string{elasticsearch.TemplateName}, result.Report.UserNames)

			entry, ok = result.Report.Entry(elasticsearch.ClientName)
			require.True(t, ok)
			assert.Equal(t, tc.clientOutcome, entry.Outcome)
		})
	}
}

func TestUserRestTemplateOverrideUnderTemplateName(t *testing.T) {
	_, server := newFakeCluster(t)
	props := elasticsearch.DefaultRestProperties()
	props.URIs = []string{server.URL}
	client, err := elasticsearch.NewRestClient(props, nil)
	require.NoError(t, err)
	mapping, err := elasticsearch.NewMappingContext()
	require.NoError(t, err)
	userTemplate := elasticsearch.NewRestTemplate(client, elasticsearch.NewMappingConverter(mapping))

	for name, snapshot := range map[string]autoconf.Snapshot{
		"empty":         autoconf.NewSnapshot(),
		"cluster nodes": clusterSnapshot(),
	} {
		t.Run(name, func(t *testing.T) {
			result := resolve(t, snapshot,
				[]elasticsearch.Option{elasticsearch.WithDialer(newFakeDialer("localhost:9300"))},
				autoconf.User(elasticsearch.TemplateName, userTemplate),
			)

			names := autoconf.NamesOf[*elasticsearch.RestTemplate](result)
			require.Equal(t, []string{elasticsearch.TemplateName}, names)
			got := autoconf.MustGet[*elasticsearch.RestTemplate](result)
			assert.Same(t, userTemplate, got)
			assert.False(t, autoconf.Has[*elasticsearch.TransportTemplate](result))

			entry, _ := result.Report.Entry(elasticsearch.RestTemplateName)
			assert.Equal(t, autoconf.OutcomeOverridden, entry.Outcome)
		})
	}
}

func TestUnreachableClusterFailsResolution(t *testing.T) {
	_, err := autoconf.NewResolver().Resolve(context.Background(),
		elasticsearch.Descriptors(elasticsearch.WithDialer(newFakeDialer())),
		clusterSnapshot(),
	)
	require.Error(t, err)

	var factoryErr *autoconf.FactoryError
	require.True(t, errors.As(err, &factoryErr))
	assert.Equal(t, elasticsearch.ClientName, factoryErr.Descriptor)
	assert.Contains(t, err.Error(), "no cluster node reachable")
}

func TestInvalidRestPropertiesFailResolution(t *testing.T) {
	_, err := autoconf.NewResolver().Resolve(context.Background(),
		elasticsearch.Descriptors(),
		autoconf.MustParseProperties("elasticsearch.rest.read-timeout=0s"),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, autoconf.ErrInvalidProperties)
}

func TestResolvedRestTemplateTalksToCluster(t *testing.T) {
	cluster, server := newFakeCluster(t)
	result := resolve(t,
		autoconf.MustParseProperties("elasticsearch.rest.uris="+server.URL),
		[]elasticsearch.Option{elasticsearch.WithEntities(book{})},
	)

	tpl := autoconf.MustGet[*elasticsearch.RestTemplate](result)
	require.NoError(t, tpl.Ping(context.Background()))
	_, err := tpl.Save(context.Background(), &book{ISBN: "1", Title: "Neuromancer"})
	require.NoError(t, err)
	_, ok := cluster.document("library-books", "1")
	assert.True(t, ok)

	mapping := autoconf.MustGet[*elasticsearch.MappingContext](result)
	require.Len(t, mapping.Entities(), 1)
	assert.Same(t, mapping, tpl.Converter().MappingContext())
}

func TestDescriptorsDescribeTheirProperties(t *testing.T) {
	names := map[string]autoconf.PropertyMetadata{}
	for _, meta := range autoconf.Metadata(elasticsearch.Descriptors()) {
		names[meta.Name] = meta
	}

	require.Contains(t, names, elasticsearch.PropertyClusterNodes)
	assert.Equal(t, "elasticsearch", names[elasticsearch.PropertyClusterName].Default)
	assert.Equal(t, "http://localhost:9200", names[elasticsearch.PropertyRestURIs].Default)
	assert.Equal(t, "duration", names["elasticsearch.rest.read-timeout"].Type)
	assert.Equal(t, "30s", names["elasticsearch.rest.read-timeout"].Default)
	assert.Contains(t, names, "data.elasticsearch.properties.*")
}

func TestAutoConfigurationGroups(t *testing.T) {
	groups := elasticsearch.AutoConfigurations()
	require.Len(t, groups, 3)
	assert.Equal(t, elasticsearch.ClientConfiguration, groups[0].Name)
	assert.Equal(t, elasticsearch.RestClientConfiguration, groups[1].Name)
	assert.Equal(t, elasticsearch.DataConfiguration, groups[2].Name)
	for _, d := range elasticsearch.Descriptors() {
		assert.NoError(t, d.Validate(), d.Name)
	}
}
