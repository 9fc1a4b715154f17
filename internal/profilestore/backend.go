// Package profilestore mediates every read and write against the customer
// profile collection.
package profilestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound is returned by a Backend when no document exists for
// a key.
var ErrDocumentNotFound = errors.New("document not found")

// Document is one JSON-encoded record addressed by its key.
type Document struct {
	Key  string
	Body []byte
}

// Backend is a key-value document store. Get reads exactly one document;
// SetBatch replaces every listed document in a single submission.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	SetBatch(ctx context.Context, docs []Document) error
	Ping(ctx context.Context) error
	Close() error
}

// Namespace identifies the collection inside a backend.
type Namespace struct {
	ProjectID  string
	Collection string
}

func (n Namespace) String() string {
	return fmt.Sprintf("%s/%s", n.ProjectID, n.Collection)
}

// keyPrefix is used by backends with a flat key space.
func (n Namespace) keyPrefix() string {
	return n.ProjectID + ":" + n.Collection + ":"
}

// indexName is used by backends whose containers must be lowercase.
func (n Namespace) indexName() string {
	return strings.ToLower(n.ProjectID + "-" + n.Collection)
}
