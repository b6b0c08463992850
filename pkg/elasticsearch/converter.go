package elasticsearch

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Converter turns entities into documents and back.
type Converter interface {
	MappingContext() *MappingContext
	Write(entity any) (Document, error)
	Read(source []byte, dest any) error
}

// Document is an entity ready to be indexed.
type Document struct {
	Index  string
	ID     string
	Source []byte
}

// MappingConverter is the JSON converter backed by a MappingContext.
type MappingConverter struct {
	mapping *MappingContext
}

// NewMappingConverter builds a converter over mapping.
func NewMappingConverter(mapping *MappingContext) *MappingConverter {
	return &MappingConverter{mapping: mapping}
}

func (c *MappingConverter) MappingContext() *MappingContext { return c.mapping }

// Write resolves the index and id of entity and encodes its source.
func (c *MappingConverter) Write(entity any) (Document, error) {
	meta, err := c.mapping.Metadata(entity)
	if err != nil {
		return Document{}, err
	}
	id, err := meta.ID(entity)
	if err != nil {
		return Document{}, err
	}
	source, err := json.Marshal(entity)
	if err != nil {
		return Document{}, fmt.Errorf("elasticsearch: encode %s: %w", meta.Type, err)
	}
	return Document{Index: meta.Index, ID: id, Source: source}, nil
}

// Read decodes a document source into dest.
func (c *MappingConverter) Read(source []byte, dest any) error {
	if err := json.Unmarshal(source, dest); err != nil {
		return fmt.Errorf("elasticsearch: decode %T: %w", dest, err)
	}
	return nil
}
