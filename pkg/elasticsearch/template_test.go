package elasticsearch_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRestTemplate(t *testing.T, uri string) *elasticsearch.RestTemplate {
	t.Helper()
	props := elasticsearch.DefaultRestProperties()
	props.URIs = []string{uri}
	client, err := elasticsearch.NewRestClient(props, nil)
	require.NoError(t, err)
	mapping, err := elasticsearch.NewMappingContext()
	require.NoError(t, err)
	return elasticsearch.NewRestTemplate(client, elasticsearch.NewMappingConverter(mapping))
}

func TestRestTemplateDocumentLifecycle(t *testing.T) {
	cluster, server := newFakeCluster(t)
	tpl := newRestTemplate(t, server.URL)
	ctx := context.Background()

	require.NoError(t, tpl.Ping(ctx))

	exists, err := tpl.IndexExists(ctx, "library-books")
	require.NoError(t, err)
	assert.False(t, exists)

	id, err := tpl.Save(ctx, &book{ISBN: "978-0441013593", Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "978-0441013593", id)

	stored, ok := cluster.document("library-books", id)
	require.True(t, ok)
	assert.JSONEq(t, `{"isbn":"978-0441013593","title":"Dune"}`, string(stored))

	exists, err = tpl.IndexExists(ctx, "library-books")
	require.NoError(t, err)
	assert.True(t, exists)

	var loaded book
	require.NoError(t, tpl.Get(ctx, id, &loaded))
	assert.Equal(t, "Dune", loaded.Title)

	require.NoError(t, tpl.Delete(ctx, book{}, id))
	err = tpl.Get(ctx, id, &loaded)
	assert.True(t, errors.Is(err, elasticsearch.ErrDocumentNotFound), "got %v", err)

	require.NoError(t, tpl.Delete(ctx, book{}, id), "deleting twice is not an error")
}

func TestRestTemplateSaveWritesGeneratedID(t *testing.T) {
	_, server := newFakeCluster(t)
	tpl := newRestTemplate(t, server.URL)

	b := &book{Title: "Untitled"}
	id, err := tpl.Save(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "generated-1", id)
	assert.Equal(t, id, b.ISBN)

	r := &review{Stars: 4, Text: "solid"}
	id, err = tpl.Save(context.Background(), r)
	assert.Equal(t, "generated-2", id)
	assert.Error(t, err, "a generated id cannot be written into a numeric field")
}

func TestRestTemplateReportsClusterErrors(t *testing.T) {
	cluster, server := newFakeCluster(t)
	tpl := newRestTemplate(t, server.URL)
	cluster.failWith(http.StatusInternalServerError)

	var responseErr *elasticsearch.ResponseError
	_, err := tpl.Save(context.Background(), &book{ISBN: "1", Title: "x"})
	require.ErrorAs(t, err, &responseErr)
	assert.Equal(t, http.StatusInternalServerError, responseErr.StatusCode)
	assert.Contains(t, responseErr.Body, "injected failure")

	_, err = tpl.IndexExists(context.Background(), "library-books")
	require.ErrorAs(t, err, &responseErr)
}

func TestRestTemplateRejectsUnmappableEntities(t *testing.T) {
	_, server := newFakeCluster(t)
	tpl := newRestTemplate(t, server.URL)

	_, err := tpl.Save(context.Background(), struct{ ID string }{ID: "x"})
	assert.ErrorContains(t, err, "no index name")
}

func TestRestTemplatePingFailsWhenClusterDown(t *testing.T) {
	_, server := newFakeCluster(t)
	server.Close()
	tpl := newRestTemplate(t, server.URL)
	assert.Error(t, tpl.Ping(context.Background()))
}
