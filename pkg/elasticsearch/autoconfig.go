package elasticsearch

import (
	"context"
	"net/http"

	"github.com/goliatone/go-autoconf"
)

// Auto-configuration group names.
const (
	ClientConfiguration     = "ElasticsearchAutoConfiguration"
	RestClientConfiguration = "RestClientAutoConfiguration"
	DataConfiguration       = "ElasticsearchDataAutoConfiguration"
)

// Component names.
const (
	ClientName         = "elasticsearchClient"
	RestClientName     = "elasticsearchRestClient"
	MappingContextName = "elasticsearchMappingContext"
	ConverterName      = "elasticsearchConverter"
	TemplateName       = "elasticsearchTemplate"
	RestTemplateName   = "elasticsearchRestTemplate"
)

// Option customises the auto-configuration.
type Option func(*config)

type config struct {
	dialer       Dialer
	transport    http.RoundTripper
	entities     []any
	dataDefaults []DataProperties
	restDefaults []RestProperties
}

// WithDialer replaces the dialer used by the transport client.
func WithDialer(d Dialer) Option {
	return func(c *config) {
		c.dialer = d
	}
}

// WithHTTPTransport replaces the round tripper used by the REST client.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}

// WithEntities pre-registers entity types in the mapping context.
func WithEntities(entities ...any) Option {
	return func(c *config) {
		c.entities = append(c.entities, entities...)
	}
}

// WithDataDefaults layers defaults under the data.elasticsearch properties.
func WithDataDefaults(props DataProperties) Option {
	return func(c *config) {
		c.dataDefaults = append(c.dataDefaults, props)
	}
}

// WithRestDefaults layers defaults under the elasticsearch.rest properties.
func WithRestDefaults(props RestProperties) Option {
	return func(c *config) {
		c.restDefaults = append(c.restDefaults, props)
	}
}

// AutoConfigurations returns the three groups in resolution order: transport
// client, REST client, then data (mapping context, converter, templates).
func AutoConfigurations(opts ...Option) []autoconf.AutoConfiguration {
	cfg := &config{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return []autoconf.AutoConfiguration{
		autoconf.NewAutoConfiguration(ClientConfiguration, cfg.clientDescriptor()),
		autoconf.NewAutoConfiguration(RestClientConfiguration, cfg.restClientDescriptor()),
		autoconf.NewAutoConfiguration(DataConfiguration,
			cfg.mappingContextDescriptor(),
			cfg.converterDescriptor(),
			cfg.templateDescriptor(),
			cfg.restTemplateDescriptor(),
		),
	}
}

// Descriptors flattens AutoConfigurations.
func Descriptors(opts ...Option) []autoconf.Descriptor {
	return autoconf.Flatten(AutoConfigurations(opts...)...)
}

func (c *config) clientDescriptor() autoconf.Descriptor {
	return autoconf.Provide(ClientName,
		func(ctx context.Context, components autoconf.Components) (TransportClient, error) {
			props, err := BindDataProperties(components.Properties(), c.dataDefaults...)
			if err != nil {
				return nil, err
			}
			return NewTransportClient(ctx, props, c.dialer)
		},
		autoconf.When(autoconf.OnProperty(PropertyClusterNodes)),
		autoconf.Describes(autoconf.DescribeProperties(DataPrefix, DefaultDataProperties())...),
	)
}

func (c *config) restClientDescriptor() autoconf.Descriptor {
	return autoconf.Provide(RestClientName,
		func(_ context.Context, components autoconf.Components) (*RestClient, error) {
			props, err := BindRestProperties(components.Properties(), c.restDefaults...)
			if err != nil {
				return nil, err
			}
			return NewRestClient(props, c.transport)
		},
		autoconf.Describes(autoconf.DescribeProperties(RestPrefix, DefaultRestProperties())...),
	)
}

func (c *config) mappingContextDescriptor() autoconf.Descriptor {
	return autoconf.Provide(MappingContextName,
		func(context.Context, autoconf.Components) (*MappingContext, error) {
			return NewMappingContext(c.entities...)
		},
	)
}

func (c *config) converterDescriptor() autoconf.Descriptor {
	return autoconf.Provide(ConverterName,
		func(_ context.Context, components autoconf.Components) (Converter, error) {
			mapping, err := autoconf.Get[*MappingContext](components)
			if err != nil {
				return nil, err
			}
			return NewMappingConverter(mapping), nil
		},
	)
}

func (c *config) templateDescriptor() autoconf.Descriptor {
	return autoconf.Provide(TemplateName,
		func(_ context.Context, components autoconf.Components) (*TransportTemplate, error) {
			client, err := autoconf.Get[TransportClient](components)
			if err != nil {
				return nil, err
			}
			converter, err := autoconf.Get[Converter](components)
			if err != nil {
				return nil, err
			}
			return NewTransportTemplate(client, converter), nil
		},
		autoconf.When(autoconf.OnComponent[TransportClient]()),
	)
}

func (c *config) restTemplateDescriptor() autoconf.Descriptor {
	return autoconf.Provide(RestTemplateName,
		func(_ context.Context, components autoconf.Components) (*RestTemplate, error) {
			client, err := autoconf.Get[*RestClient](components)
			if err != nil {
				return nil, err
			}
			converter, err := autoconf.Get[Converter](components)
			if err != nil {
				return nil, err
			}
			return NewRestTemplate(client, converter), nil
		},
		autoconf.When(autoconf.OnComponent[*RestClient]()),
	)
}
