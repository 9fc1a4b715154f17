package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: crediflow-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "crediflow-test", cfg.App.Name)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "credflow-478510", cfg.Store.ProjectID)
	assert.Equal(t, "crediflow_customers", cfg.Store.Collection)
	assert.Equal(t, 5000, cfg.Store.ConnectTimeoutMS)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)
	assert.Equal(t, "http://localhost:8080", cfg.Chat.APIURL)
	assert.Equal(t, 120000, cfg.Chat.TimeoutMS)
	assert.Equal(t, "http://localhost:8080/chat", cfg.Chat.Endpoint())
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.GetAddresses())
}

func TestLoadFromFile_APIURLFromEnvironment(t *testing.T) {
	t.Setenv("API_URL", "https://agent.example.run.app")
	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: x\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://agent.example.run.app/chat", cfg.Chat.Endpoint())
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_REDIS_SECRET", "s3cret")
	cfg, err := LoadFromFile(writeConfig(t, `
database:
  redis:
    address: redis:6379
    password: ${TEST_REDIS_SECRET}
`))
	require.NoError(t, err)

	assert.Equal(t, "redis:6379", cfg.Database.Redis.Address)
	assert.Equal(t, "s3cret", cfg.Database.Redis.Password)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown backend", "store:\n  backend: firestore\n", "store.backend"},
		{"postgres without host", "store:\n  backend: postgres\n", "database.postgres.host"},
		{"negative chat timeout", "chat:\n  timeout_ms: -1\n", "chat.timeout_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, `
workers:
  fetch-customer-profile:
    enabled: true
`))
	require.NoError(t, err)

	w := GetWorkerConfig(cfg, "fetch-customer-profile")
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.True(t, GetWorkerConfig(cfg, "validate-loan-request").Enabled)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "crediflow", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=crediflow sslmode=disable", p.GetDSN())
}

func TestChatConfig_EndpointTrimsSlash(t *testing.T) {
	assert.Equal(t, "http://a:8080/chat", ChatConfig{APIURL: "http://a:8080/"}.Endpoint())
}
