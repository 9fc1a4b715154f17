package profilestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchBackend keeps each profile as a document in the
// "<project>-<collection>" index with the phone number as _id. Bulk writes
// are not atomic; failed items are reported together.
type ElasticsearchBackend struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchBackend(client *elasticsearch.Client, ns Namespace) *ElasticsearchBackend {
	return &ElasticsearchBackend{client: client, index: ns.indexName()}
}

func (b *ElasticsearchBackend) Name() string { return "elasticsearch" }

func (b *ElasticsearchBackend) Index() string { return b.index }

type getResponse struct {
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

func (b *ElasticsearchBackend) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := b.client.Get(b.index, key, b.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrDocumentNotFound
	}
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("elasticsearch get %s: %s: %s", key, res.Status(), strings.TrimSpace(string(body)))
	}

	var doc getResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("elasticsearch get %s: decode: %w", key, err)
	}
	if !doc.Found {
		return nil, ErrDocumentNotFound
	}
	return doc.Source, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (b *ElasticsearchBackend) SetBatch(ctx context.Context, docs []Document) error {
	var buf bytes.Buffer
	for _, d := range docs {
		meta := map[string]map[string]string{"index": {"_index": b.index, "_id": d.Key}}
		line, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("elasticsearch bulk meta %s: %w", d.Key, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		buf.Write(d.Body)
		buf.WriteByte('\n')
	}

	res, err := b.client.Bulk(&buf,
		b.client.Bulk.WithContext(ctx),
		b.client.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk of %d: %w", len(docs), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("elasticsearch bulk of %d: %s: %s", len(docs), res.Status(), strings.TrimSpace(string(body)))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("elasticsearch bulk: decode: %w", err)
	}
	if !br.Errors {
		return nil
	}

	var failed []string
	for _, item := range br.Items {
		for _, result := range item {
			if result.Error != nil {
				failed = append(failed, fmt.Sprintf("%s (%s: %s)", result.ID, result.Error.Type, result.Error.Reason))
			}
		}
	}
	return fmt.Errorf("elasticsearch bulk: %d of %d items failed: %s", len(failed), len(docs), strings.Join(failed, "; "))
}

func (b *ElasticsearchBackend) Ping(ctx context.Context) error {
	res, err := b.client.Ping(b.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// Close is a no-op; the HTTP transport has no connection to release.
func (b *ElasticsearchBackend) Close() error { return nil }
