package profilestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crediflow/internal/common/config"
	"crediflow/internal/common/database"
	apperrors "crediflow/internal/common/errors"
	"crediflow/internal/common/logger"
	"crediflow/internal/common/metrics"
	"crediflow/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "crediflow/profilestore"

// Lookup outcomes, used as metric labels.
const (
	outcomeFound       = "found"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "unavailable"
	outcomeInvalid     = "invalid"
	outcomeTransport   = "transport"
	outcomeCommitted   = "committed"
)

// Client reads and seeds customer profiles. A client built without a
// backend is unavailable for its whole lifetime.
type Client struct {
	backend Backend
	reason  error
	log     logger.Logger
	tracer  trace.Tracer
}

type Option func(*Client)

func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// NewClient wraps an already connected backend.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		log:     logger.NewNoOpLogger(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if backend == nil {
		c.reason = errors.New("no backend configured")
	}
	return c
}

// Unavailable returns a degraded client: every Find fails with
// ErrUnavailable, Lookup returns nil and Seed returns 0.
func Unavailable(reason error, log logger.Logger) *Client {
	if reason == nil {
		reason = errors.New("client not initialized")
	}
	c := NewClient(nil, WithLogger(log))
	c.reason = reason
	return c
}

// Open connects to the configured backend. It always returns a usable
// client; when the store cannot be reached the client is unavailable and
// the returned error carries the reason. opts are applied after the logger.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Client, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	ns := Namespace{ProjectID: cfg.Store.ProjectID, Collection: cfg.Store.Collection}
	timeout := time.Duration(cfg.Store.ConnectTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backend, err := connect(connectCtx, cfg, ns, timeout)
	if err != nil {
		log.Error("Failed to connect to profile store", map[string]interface{}{
			"backend":   cfg.Store.Backend,
			"namespace": ns.String(),
			"error":     err,
		})
		return Unavailable(err, log), apperrors.NewStoreUnavailableError(err)
	}

	log.Info("Profile store connected", map[string]interface{}{
		"backend":   backend.Name(),
		"namespace": ns.String(),
	})
	return NewClient(backend, append([]Option{WithLogger(log)}, opts...)...), nil
}

func connect(ctx context.Context, cfg *config.Config, ns Namespace, timeout time.Duration) (Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis, "":
		rdb, err := database.DialRedis(ctx, cfg.Database.Redis, timeout)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(rdb, ns), nil
	case config.BackendPostgres:
		db, err := database.OpenPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		backend := NewPostgresBackend(db, ns)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = backend.Close()
			return nil, err
		}
		return backend, nil
	case config.BackendElasticsearch:
		es, err := database.DialElasticsearch(ctx, cfg.Database.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		return NewElasticsearchBackend(es, ns), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// Available reports whether the client holds a live backend.
func (c *Client) Available() bool {
	return c.backend != nil
}

// BackendName is "unavailable" for a degraded client.
func (c *Client) BackendName() string {
	if c.backend == nil {
		return outcomeUnavailable
	}
	return c.backend.Name()
}

// Find reads the profile stored under phoneNumber. The error matches exactly
// one of apperrors.ErrUnavailable, ErrNotFound, ErrInvalid or ErrTransport.
func (c *Client) Find(ctx context.Context, phoneNumber string) (*models.CustomerProfile, error) {
	ctx, span := c.tracer.Start(ctx, "profilestore.Find",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", c.BackendName())),
	)
	defer span.End()

	profile, outcome, err := c.find(ctx, phoneNumber)
	metrics.ProfileLookups.WithLabelValues(c.BackendName(), outcome).Inc()
	span.SetAttributes(attribute.String("profile.outcome", outcome))
	if err != nil && outcome != outcomeNotFound {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return profile, err
}

func (c *Client) find(ctx context.Context, phoneNumber string) (*models.CustomerProfile, string, error) {
	if c.backend == nil {
		return nil, outcomeUnavailable, apperrors.NewStoreUnavailableError(c.reason)
	}
	// An empty key can never have been written.
	if phoneNumber == "" {
		return nil, outcomeNotFound, apperrors.NewProfileNotFoundError(phoneNumber)
	}

	data, err := c.backend.Get(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, outcomeNotFound, apperrors.NewProfileNotFoundError(phoneNumber)
		}
		return nil, outcomeTransport, apperrors.NewStoreReadFailedError(phoneNumber, err)
	}

	profile, err := models.ProfileFromJSON(data)
	if err != nil {
		return nil, outcomeInvalid, apperrors.NewProfileInvalidError(phoneNumber, err)
	}
	return profile, outcomeFound, nil
}

// Lookup is the fail-soft form of Find: any failure is logged and nil is
// returned.
func (c *Client) Lookup(ctx context.Context, phoneNumber string) *models.CustomerProfile {
	profile, err := c.Find(ctx, phoneNumber)
	if err == nil {
		c.log.Info("Found customer", map[string]interface{}{
			"phoneNumber": phoneNumber,
			"custId":      profile.CustID,
		})
		return profile
	}

	fields := map[string]interface{}{"phoneNumber": phoneNumber}
	switch apperrors.KindOf(err) {
	case apperrors.ErrNotFound:
		c.log.Warn("No customer found", fields)
	case apperrors.ErrUnavailable:
		c.log.WithError(err).Error("Profile store not available", fields)
	case apperrors.ErrInvalid:
		c.log.WithError(err).Error("Stored customer record is invalid", fields)
	default:
		c.log.WithError(err).Error("Error fetching customer", fields)
	}
	return nil
}

// SeedProfiles validates every record, then writes the canonical documents
// keyed by phone number in one batch. Any invalid record aborts the batch
// before anything is written. Records sharing a phone number collapse to
// the last one.
func (c *Client) SeedProfiles(ctx context.Context, records []map[string]interface{}) (int, error) {
	ctx, span := c.tracer.Start(ctx, "profilestore.Seed",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", c.BackendName()),
			attribute.Int("seed.records", len(records)),
		),
	)
	defer span.End()

	count, outcome, err := c.seed(ctx, records)
	metrics.ProfileSeedRuns.WithLabelValues(c.BackendName(), outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return 0, err
	}
	metrics.ProfileSeedRecords.WithLabelValues(c.BackendName()).Add(float64(count))
	return count, nil
}

func (c *Client) seed(ctx context.Context, records []map[string]interface{}) (int, string, error) {
	if c.backend == nil {
		return 0, outcomeUnavailable, apperrors.NewStoreUnavailableError(c.reason)
	}

	docs := make([]Document, 0, len(records))
	index := make(map[string]int, len(records))
	for i, rec := range records {
		profile, err := models.ProfileFromMap(rec)
		if err != nil {
			phone, _ := rec[models.FieldPhoneNumber].(string)
			return 0, outcomeInvalid, apperrors.NewProfileInvalidError(phone, fmt.Errorf("record %d: %w", i, err))
		}
		body, err := profile.MarshalDocument()
		if err != nil {
			return 0, outcomeInvalid, apperrors.NewProfileInvalidError(profile.PhoneNumber, err)
		}

		doc := Document{Key: profile.PhoneNumber, Body: body}
		if at, dup := index[doc.Key]; dup {
			docs[at] = doc
			continue
		}
		index[doc.Key] = len(docs)
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return 0, outcomeCommitted, nil
	}

	if err := c.backend.SetBatch(ctx, docs); err != nil {
		return 0, outcomeTransport, apperrors.NewStoreWriteFailedError(len(docs), err)
	}
	return len(docs), outcomeCommitted, nil
}

// Seed loads the ten canonical customer records. It returns the number of
// documents committed, or 0 when the store is unavailable or the batch fails.
func (c *Client) Seed(ctx context.Context) int {
	count, err := c.SeedProfiles(ctx, models.SeedRecords())
	if err != nil {
		if errors.Is(err, apperrors.ErrUnavailable) {
			c.log.WithError(err).Error("Profile store not available, cannot seed", nil)
		} else {
			c.log.WithError(err).Error("Error seeding profile store", nil)
		}
		return 0
	}

	c.log.Info("Successfully seeded customer records", map[string]interface{}{
		"count":   count,
		"backend": c.BackendName(),
	})
	return count
}

// Close releases the backend connection. Closing an unavailable client is a
// no-op.
func (c *Client) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
