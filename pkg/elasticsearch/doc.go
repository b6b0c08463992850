// Package elasticsearch declares the Elasticsearch auto-configuration: a
// transport client and template activated by cluster-nodes, a REST client
// and template that are always present, and the mapping context and
// converter shared by both templates.
//
// The descriptors returned by Descriptors are resolved by the autoconf
// resolver:
//
//	snapshot := autoconf.MustParseProperties("elasticsearch.rest.uris=http://es:9200")
//	result, err := autoconf.NewResolver().Resolve(ctx, elasticsearch.Descriptors(), snapshot)
//	if err != nil {
//		return err
//	}
//	defer result.Close()
//	tpl := autoconf.MustGet[*elasticsearch.RestTemplate](result)
package elasticsearch
