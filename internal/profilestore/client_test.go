package profilestore

import (
	"context"
	"errors"
	"testing"

	"crediflow/internal/common/config"
	apperrors "crediflow/internal/common/errors"
	"crediflow/internal/common/logger"
	"crediflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ==========================
// Test Helper Functions
// ==========================

var testNamespace = Namespace{ProjectID: "credflow-478510", Collection: "crediflow_customers"}

func newRedisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewClient(NewRedisBackend(rdb, testNamespace), WithLogger(logger.NewTestLogger(t)))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// memoryBackend records batches and lets tests inject failures.
type memoryBackend struct {
	docs     map[string][]byte
	batches  int
	getErr   error
	batchErr error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{docs: map[string][]byte{}}
}

func (m *memoryBackend) Name() string { return "memory" }

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.docs[key]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return data, nil
}

func (m *memoryBackend) SetBatch(_ context.Context, docs []Document) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batches++
	for _, d := range docs {
		m.docs[d.Key] = d.Body
	}
	return nil
}

func (m *memoryBackend) Ping(context.Context) error { return nil }
func (m *memoryBackend) Close() error               { return nil }

// ==========================
// Lookup / Find
// ==========================

func TestSeedThenLookupRoundTrip(t *testing.T) {
	c, _ := newRedisClient(t)
	ctx := context.Background()

	require.Equal(t, 10, c.Seed(ctx))

	for _, rec := range models.SeedRecords() {
		want, err := models.ProfileFromMap(rec)
		require.NoError(t, err)

		got := c.Lookup(ctx, want.PhoneNumber)
		require.NotNil(t, got, "phone %s", want.PhoneNumber)
		assert.Equal(t, want, got)
	}
}

func TestLookup_Scenarios(t *testing.T) {
	c, _ := newRedisClient(t)
	ctx := context.Background()
	require.Equal(t, 10, c.Seed(ctx))

	rohan := c.Lookup(ctx, "9876543210")
	require.NotNil(t, rohan)
	assert.Equal(t, "Rohan Sharma", rohan.FullName)
	assert.Equal(t, int64(780), rohan.BureauScore)
	assert.Equal(t, int64(500000), rohan.PreApprovedLimit)

	assert.Nil(t, c.Lookup(ctx, "0000000000"))

	_, err := c.Find(ctx, "0000000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFind_NewToCreditScoreIsZero(t *testing.T) {
	c, _ := newRedisClient(t)
	ctx := context.Background()
	require.Equal(t, 10, c.Seed(ctx))

	p, err := c.Find(ctx, "9876543214")
	require.NoError(t, err)
	assert.Equal(t, "Vikram Rathore", p.FullName)
	assert.Equal(t, int64(0), p.BureauScore)
}

func TestFind_EmptyPhoneIsNotFound(t *testing.T) {
	backend := newMemoryBackend()
	backend.getErr = errors.New("must not be called")
	c := NewClient(backend)

	_, err := c.Find(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFind_InvalidStoredDocument(t *testing.T) {
	c, mr := newRedisClient(t)
	require.NoError(t, mr.Set("credflow-478510:crediflow_customers:5550001111",
		`{"cust_id":"C9","full_name":"No Score","phone_number":"5550001111","annual_income":1}`))

	_, err := c.Find(context.Background(), "5550001111")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalid)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)

	assert.Nil(t, c.Lookup(context.Background(), "5550001111"))
}

func TestFind_TransportFailure(t *testing.T) {
	c, mr := newRedisClient(t)
	mr.Close()

	_, err := c.Find(context.Background(), "9876543210")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.Equal(t, apperrors.ErrTransport, apperrors.KindOf(err))

	assert.Nil(t, c.Lookup(context.Background(), "9876543210"))
}

func TestFind_ErrorKindsAreExclusive(t *testing.T) {
	backend := newMemoryBackend()
	backend.docs["1"] = []byte(`{"broken"`)
	c := NewClient(backend)
	ctx := context.Background()

	_, notFound := c.Find(ctx, "2")
	_, invalid := c.Find(ctx, "1")
	backend.getErr = errors.New("socket closed")
	_, transport := c.Find(ctx, "1")
	_, unavailable := Unavailable(nil, nil).Find(ctx, "1")

	for err, kind := range map[error]error{
		notFound:    apperrors.ErrNotFound,
		invalid:     apperrors.ErrInvalid,
		transport:   apperrors.ErrTransport,
		unavailable: apperrors.ErrUnavailable,
	} {
		assert.Equal(t, kind, apperrors.KindOf(err), "%v", err)
	}
}

// ==========================
// Seed
// ==========================

func TestSeed_IsIdempotent(t *testing.T) {
	c, mr := newRedisClient(t)
	ctx := context.Background()

	require.Equal(t, 10, c.Seed(ctx))
	before, err := mr.Get("credflow-478510:crediflow_customers:9876543210")
	require.NoError(t, err)

	require.Equal(t, 10, c.Seed(ctx))
	assert.Len(t, mr.Keys(), 10)

	after, err := mr.Get("credflow-478510:crediflow_customers:9876543210")
	require.NoError(t, err)
	assert.JSONEq(t, before, after)
}

func TestSeed_WritesCanonicalDocumentOnly(t *testing.T) {
	backend := newMemoryBackend()
	c := NewClient(backend)

	rec := models.SeedRecords()[0]
	rec["favourite_colour"] = "blue"
	delete(rec, models.FieldExistingEMIs)

	n, err := c.SeedProfiles(context.Background(), []map[string]interface{}{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := models.DecodeDocument(backend.docs["9876543210"])
	require.NoError(t, err)
	assert.Len(t, raw, 8)
	assert.NotContains(t, raw, "favourite_colour")
	assert.Contains(t, raw, models.FieldExistingEMIs)
}

func TestSeedProfiles_InvalidRecordAbortsBatch(t *testing.T) {
	backend := newMemoryBackend()
	c := NewClient(backend)

	records := models.SeedRecords()
	delete(records[3], models.FieldBureauScore)

	n, err := c.SeedProfiles(context.Background(), records)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, apperrors.ErrInvalid)
	assert.Equal(t, 0, backend.batches)
	assert.Empty(t, backend.docs)
}

func TestSeedProfiles_DuplicatePhoneLastWins(t *testing.T) {
	backend := newMemoryBackend()
	c := NewClient(backend)

	first := models.SeedRecords()[0]
	second := models.SeedRecords()[0]
	second[models.FieldFullName] = "Rohan S."

	n, err := c.SeedProfiles(context.Background(), []map[string]interface{}{first, second})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := models.ProfileFromJSON(backend.docs["9876543210"])
	require.NoError(t, err)
	assert.Equal(t, "Rohan S.", p.FullName)
}

func TestSeedProfiles_Empty(t *testing.T) {
	backend := newMemoryBackend()
	n, err := NewClient(backend).SeedProfiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, backend.batches)
}

func TestSeed_BatchFailureReturnsZero(t *testing.T) {
	backend := newMemoryBackend()
	backend.batchErr = errors.New("quota exceeded")
	c := NewClient(backend, WithLogger(logger.NewTestLogger(t)))

	assert.Equal(t, 0, c.Seed(context.Background()))

	_, err := c.SeedProfiles(context.Background(), models.SeedRecords())
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

// ==========================
// Unavailable client
// ==========================

func TestUnavailableClient(t *testing.T) {
	c := Unavailable(errors.New("credentials missing"), logger.NewTestLogger(t))
	ctx := context.Background()

	assert.False(t, c.Available())
	assert.Equal(t, "unavailable", c.BackendName())
	assert.NotPanics(t, func() {
		assert.Nil(t, c.Lookup(ctx, "9876543210"))
		assert.Equal(t, 0, c.Seed(ctx))
	})

	_, err := c.Find(ctx, "9876543210")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Contains(t, err.Error(), "credentials missing")
	assert.NoError(t, c.Close())
}

func TestUnavailableClient_LogsCause(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := Unavailable(errors.New("credentials missing"), logger.NewZapAdapter(zap.New(core)))

	assert.Nil(t, c.Lookup(context.Background(), "9876543210"))
	assert.Equal(t, 0, c.Seed(context.Background()))

	lookup := logs.FilterMessage("Profile store not available").All()
	require.Len(t, lookup, 1)
	assert.Equal(t, "9876543210", lookup[0].ContextMap()["phoneNumber"])
	assert.Contains(t, lookup[0].ContextMap()["error"], "credentials missing")

	seed := logs.FilterMessage("Profile store not available, cannot seed").All()
	require.Len(t, seed, 1)
	assert.Contains(t, seed[0].ContextMap()["error"], "credentials missing")
}

// ==========================
// Tracing
// ==========================

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) string {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestFind_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	backend := newMemoryBackend()
	c := NewClient(backend, WithTracer(tp.Tracer("test")))
	ctx := context.Background()

	_, err := c.Find(ctx, "0000000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	backend.getErr = errors.New("connection reset")
	_, err = c.Find(ctx, "9876543210")
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "profilestore.Find", spans[0].Name())
	assert.Equal(t, "memory", spanAttr(spans[0], "db.system"))
	assert.Equal(t, "not_found", spanAttr(spans[0], "profile.outcome"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "transport", spanAttr(spans[1], "profile.outcome"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.NotEmpty(t, spans[1].Events())
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestSeed_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c := NewClient(newMemoryBackend(), WithTracer(tp.Tracer("test")))

	assert.Equal(t, 10, c.Seed(context.Background()))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "profilestore.Seed", spans[0].Name())
	assert.Equal(t, "10", spanAttr(spans[0], "seed.records"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestOpen_UnreachableStoreIsDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{
		Store: config.StoreConfig{
			Backend:          config.BackendRedis,
			ProjectID:        "credflow-478510",
			Collection:       "crediflow_customers",
			ConnectTimeoutMS: 500,
		},
		Database: config.DatabaseConfig{Redis: config.RedisConfig{Address: addr}},
	}

	c, err := Open(context.Background(), cfg, logger.NewTestLogger(t))
	require.Error(t, err)
	require.NotNil(t, c)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.False(t, c.Available())
	assert.Equal(t, 0, c.Seed(context.Background()))
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Store: config.StoreConfig{
			Backend:    config.BackendRedis,
			ProjectID:  "credflow-478510",
			Collection: "crediflow_customers",
		},
		Database: config.DatabaseConfig{Redis: config.RedisConfig{Address: mr.Addr()}},
	}

	c, err := Open(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.Available())
	assert.Equal(t, "redis", c.BackendName())
	assert.Equal(t, 10, c.Seed(context.Background()))
	assert.Len(t, mr.Keys(), 10)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "firestore"}}

	c, err := Open(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firestore")
	assert.False(t, c.Available())
}
