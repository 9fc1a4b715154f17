// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"crediflow/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// DialElasticsearch creates a client for cfg and pings the cluster. A nil
// transport uses the library default. Retries are disabled: each store
// call sends exactly one request.
func DialElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, transport http.RoundTripper) (*elasticsearch.Client, error) {
	addresses := cfg.GetAddresses()
	if len(addresses) == 0 {
		return nil, errors.New("no elasticsearch addresses configured")
	}

	esCfg := elasticsearch.Config{
		Addresses:    addresses,
		Transport:    transport,
		DisableRetry: true,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return es, nil
}
