// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crediflow/internal/chat"
	"crediflow/internal/common/camunda"
	"crediflow/internal/common/config"
	"crediflow/internal/common/logger"
	"crediflow/internal/common/observability"
	"crediflow/internal/models"
	"crediflow/internal/profilestore"

	fetchcustomerprofile "crediflow/internal/workers/customer/fetch-customer-profile"
	validateloanrequest "crediflow/internal/workers/loan/validate-loan-request"
)

var (
	e2eLog    logger.Logger
	namespace = profilestore.Namespace{ProjectID: "credflow-478510", Collection: "crediflow_customers"}
)

func TestMain(m *testing.M) {
	e2eLog = logger.NewZapAdapter(logger.New("error", "json"))
	os.Exit(m.Run())
}

func newSeededStore(t testing.TB) *profilestore.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := profilestore.NewClient(profilestore.NewRedisBackend(rdb, namespace), profilestore.WithLogger(e2eLog))
	t.Cleanup(func() { _ = store.Close() })

	require.Equal(t, 10, store.Seed(context.Background()))
	return store
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := newSeededStore(t)

	t.Run("lookup", func(t *testing.T) {
		p := store.Lookup(ctx, "9876543210")
		require.NotNil(t, p)
		assert.Equal(t, "C1001", p.CustID)
		assert.Equal(t, "Rohan Sharma", p.FullName)

		newToCredit := store.Lookup(ctx, "9876543214")
		require.NotNil(t, newToCredit)
		assert.Equal(t, int64(0), newToCredit.BureauScore)

		assert.Nil(t, store.Lookup(ctx, "0000000000"))
	})

	t.Run("reseed is idempotent", func(t *testing.T) {
		assert.Equal(t, 10, store.Seed(ctx))
		p := store.Lookup(ctx, "9876543219")
		require.NotNil(t, p)
		assert.Equal(t, int64(800000), p.PreApprovedLimit)
	})

	t.Run("fetch customer profile tool", func(t *testing.T) {
		handler := fetchcustomerprofile.NewHandler(fetchcustomerprofile.LoadConfig(), store, observability.NewNoop(), e2eLog)

		out, err := handler.Execute(ctx, &fetchcustomerprofile.Input{PhoneNumber: "9876543212"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, out.ToolResponse.Status)
		assert.Equal(t, "C1003", out.ToolResponse.Data[models.FieldCustID])
		assert.Equal(t, int64(45000), out.ToolResponse.Data[models.FieldExistingEMIs])

		out, err = handler.Execute(ctx, &fetchcustomerprofile.Input{PhoneNumber: "0000000000"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, out.ToolResponse.Status)
		assert.Equal(t, "Customer not found", out.ToolResponse.Message)
	})

	t.Run("validate loan request tool", func(t *testing.T) {
		handler := validateloanrequest.NewHandler(validateloanrequest.LoadConfig(), store, observability.NewNoop(), e2eLog)

		out, err := handler.Execute(ctx, &validateloanrequest.Input{LoanRequest: map[string]interface{}{
			"phone_number":            "9876543210",
			"requested_amount":        300000.0,
			"requested_tenure_months": 24.0,
		}})
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, out.ToolResponse.Status)
		assert.Equal(t, "C1001", out.ToolResponse.Data[models.FieldCustID])

		out, err = handler.Execute(ctx, &validateloanrequest.Input{LoanRequest: map[string]interface{}{
			"phone_number":            "9876543210",
			"requested_amount":        0.0,
			"requested_tenure_months": 24.0,
		}})
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, out.ToolResponse.Status)
		assert.Contains(t, out.ToolResponse.Data["invalidFields"], "requested_amount")
	})

	t.Run("degraded store", func(t *testing.T) {
		degraded := profilestore.Unavailable(assert.AnError, e2eLog)
		assert.Nil(t, degraded.Lookup(ctx, "9876543210"))
		assert.Equal(t, 0, degraded.Seed(ctx))

		handler := fetchcustomerprofile.NewHandler(fetchcustomerprofile.LoadConfig(), degraded, observability.NewNoop(), e2eLog)
		_, err := handler.Execute(ctx, &fetchcustomerprofile.Input{PhoneNumber: "9876543210"})
		assert.Error(t, err)
	})
}

func TestChatE2E(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chat.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if strings.Contains(req.Message, "break") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal error"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"agent_response": "Hello! How can I help with your loan today?",
			"trace":          []map[string]interface{}{{"tool": "fetch_customer_profile"}},
		})
	}))
	defer server.Close()

	session := chat.NewSession(chat.NewClient(server.URL, 5*time.Second, e2eLog))
	ctx := context.Background()

	turn := session.Submit(ctx, "Hi, I need a loan")
	require.False(t, turn.Failed())
	assert.Equal(t, "Hello! How can I help with your loan today?", turn.Reply)
	assert.Contains(t, string(session.LastTrace()), "fetch_customer_profile")

	turn = session.Submit(ctx, "break it")
	require.True(t, turn.Failed())
	assert.Equal(t, "HTTP error: 500 - internal error", turn.ErrorText)
	assert.JSONEq(t, `{"error":"internal error"}`, string(session.LastTrace()))

	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleUser, msgs[2].Role)
	assert.Equal(t, 2, calls)
}

// TestZeebeConnectivity runs only against a live broker.
func TestZeebeConnectivity(t *testing.T) {
	address := os.Getenv("E2E_ZEEBE_ADDRESS")
	if address == "" {
		t.Skip("E2E_ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := camunda.Connect(ctx, camunda.ConfigFromApp(config.CamundaConfig{BrokerAddress: address}), e2eLog)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(ctx))
}

func BenchmarkFetchCustomerProfile(b *testing.B) {
	store := newSeededStore(b)
	handler := fetchcustomerprofile.NewHandler(fetchcustomerprofile.LoadConfig(), store, observability.NewNoop(), logger.NewNoOpLogger())
	input := &fetchcustomerprofile.Input{PhoneNumber: "9876543210"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = handler.Execute(context.Background(), input)
	}
}

func BenchmarkValidateLoanRequest(b *testing.B) {
	store := newSeededStore(b)
	handler := validateloanrequest.NewHandler(validateloanrequest.LoadConfig(), store, observability.NewNoop(), logger.NewNoOpLogger())
	input := &validateloanrequest.Input{LoanRequest: map[string]interface{}{
		"phone_number":            "9876543211",
		"requested_amount":        50000.0,
		"requested_tenure_months": 12.0,
	}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = handler.Execute(context.Background(), input)
	}
}
