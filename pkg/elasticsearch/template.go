package elasticsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	json "github.com/goccy/go-json"
)

// ErrDocumentNotFound is returned by Get for a missing document.
var ErrDocumentNotFound = errors.New("elasticsearch: document not found")

// Operations is the behaviour shared by the templates.
type Operations interface {
	Ping(ctx context.Context) error
}

// TransportTemplate runs operations through a TransportClient.
type TransportTemplate struct {
	client    TransportClient
	converter Converter
}

// NewTransportTemplate builds a template over client.
func NewTransportTemplate(client TransportClient, converter Converter) *TransportTemplate {
	return &TransportTemplate{client: client, converter: converter}
}

func (t *TransportTemplate) Client() TransportClient { return t.client }
func (t *TransportTemplate) Converter() Converter    { return t.converter }
func (t *TransportTemplate) ClusterName() string     { return t.client.ClusterName() }
func (t *TransportTemplate) Nodes() []string         { return t.client.Nodes() }

// Ping dials the cluster nodes.
func (t *TransportTemplate) Ping(ctx context.Context) error {
	return t.client.Ping(ctx)
}

// RestTemplate runs document operations through a RestClient.
type RestTemplate struct {
	client    *RestClient
	converter Converter
}

// NewRestTemplate builds a template over client.
func NewRestTemplate(client *RestClient, converter Converter) *RestTemplate {
	return &RestTemplate{client: client, converter: converter}
}

func (t *RestTemplate) Client() *RestClient  { return t.client }
func (t *RestTemplate) Converter() Converter { return t.converter }

// Ping checks the cluster answers.
func (t *RestTemplate) Ping(ctx context.Context) error {
	return t.client.Ping(ctx)
}

// Save indexes entity and returns its id. Entities without an id get the one
// generated by the cluster, written back when entity is a pointer.
func (t *RestTemplate) Save(ctx context.Context, entity any) (string, error) {
	doc, err := t.converter.Write(entity)
	if err != nil {
		return "", err
	}
	es := t.client.es
	opts := []func(*esapi.IndexRequest){es.Index.WithContext(ctx)}
	if doc.ID != "" {
		opts = append(opts, es.Index.WithDocumentID(doc.ID))
	}
	res, err := es.Index(doc.Index, bytes.NewReader(doc.Source), opts...)
	if err != nil {
		return "", fmt.Errorf("elasticsearch: index %s: %w", doc.Index, err)
	}
	defer drain(res)
	if res.IsError() {
		return "", responseError("index "+doc.Index, res)
	}

	var body struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("elasticsearch: decode index response: %w", err)
	}
	if doc.ID == "" && body.ID != "" {
		meta, err := t.converter.MappingContext().Metadata(entity)
		if err != nil {
			return "", err
		}
		if err := meta.SetID(entity, body.ID); err != nil {
			return body.ID, err
		}
	}
	return body.ID, nil
}

// Get loads the document id into dest, whose type selects the index.
func (t *RestTemplate) Get(ctx context.Context, id string, dest any) error {
	meta, err := t.converter.MappingContext().Metadata(dest)
	if err != nil {
		return err
	}
	es := t.client.es
	res, err := es.Get(meta.Index, id, es.Get.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: get %s/%s: %w", meta.Index, id, err)
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, meta.Index, id)
	}
	if res.IsError() {
		return responseError("get "+meta.Index, res)
	}

	var body struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("elasticsearch: decode get response: %w", err)
	}
	if !body.Found {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, meta.Index, id)
	}
	return t.converter.Read(body.Source, dest)
}

// Delete removes document id from the index of entity's type. Deleting a
// missing document is not an error.
func (t *RestTemplate) Delete(ctx context.Context, entity any, id string) error {
	meta, err := t.converter.MappingContext().Metadata(entity)
	if err != nil {
		return err
	}
	es := t.client.es
	res, err := es.Delete(meta.Index, id, es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete %s/%s: %w", meta.Index, id, err)
	}
	defer drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete "+meta.Index, res)
	}
	return nil
}

// IndexExists reports whether index exists.
func (t *RestTemplate) IndexExists(ctx context.Context, index string) (bool, error) {
	es := t.client.es
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("elasticsearch: index exists %s: %w", index, err)
	}
	defer drain(res)
	switch {
	case res.StatusCode == http.StatusNotFound:
		return false, nil
	case res.IsError():
		return false, responseError("index exists "+index, res)
	}
	return true, nil
}
