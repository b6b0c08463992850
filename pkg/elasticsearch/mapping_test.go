package elasticsearch_test

import (
	"testing"

	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingContextMetadata(t *testing.T) {
	mapping, err := elasticsearch.NewMappingContext(book{}, &review{})
	require.NoError(t, err)

	entities := mapping.Entities()
	require.Len(t, entities, 2)
	assert.Equal(t, "library-books", entities[0].Index)
	assert.Equal(t, "ISBN", entities[0].IDField)
	assert.Equal(t, "review", entities[1].Index)
	assert.Equal(t, "ID", entities[1].IDField)

	again, err := mapping.Metadata(&book{})
	require.NoError(t, err)
	assert.Same(t, entities[0], again)
}

func TestMappingContextRejectsUnmappableEntities(t *testing.T) {
	type noID struct{ Name string }

	_, err := elasticsearch.NewMappingContext(noID{})
	assert.ErrorContains(t, err, "no id field")

	_, err = elasticsearch.NewMappingContext("not a struct")
	assert.ErrorContains(t, err, "must be a struct")
}

func TestEntityMetadataIDRoundTrip(t *testing.T) {
	mapping, err := elasticsearch.NewMappingContext()
	require.NoError(t, err)

	r := &review{Stars: 5}
	meta, err := mapping.Metadata(r)
	require.NoError(t, err)

	id, err := meta.ID(r)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, meta.SetID(r, "42"))
	assert.Equal(t, int64(42), r.ID)
	id, err = meta.ID(*r)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	assert.Error(t, meta.SetID(r, "forty-two"))
	assert.Error(t, meta.SetID(*r, "1"))
	_, err = meta.ID(book{})
	assert.Error(t, err)
}

func TestMappingConverterWriteAndRead(t *testing.T) {
	mapping, err := elasticsearch.NewMappingContext()
	require.NoError(t, err)
	converter := elasticsearch.NewMappingConverter(mapping)
	assert.Same(t, mapping, converter.MappingContext())

	doc, err := converter.Write(book{ISBN: "978-0", Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "library-books", doc.Index)
	assert.Equal(t, "978-0", doc.ID)
	assert.JSONEq(t, `{"isbn":"978-0","title":"Dune"}`, string(doc.Source))

	var out book
	require.NoError(t, converter.Read(doc.Source, &out))
	assert.Equal(t, book{ISBN: "978-0", Title: "Dune"}, out)

	assert.Error(t, converter.Read([]byte("{"), &out))
}
