// internal/workers/loan/validate-loan-request/config.go
package validateloanrequest

import (
	"time"

	"crediflow/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
	// RequireKnownCustomer rejects requests whose phone number has no
	// stored profile.
	RequireKnownCustomer bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:              10 * time.Second,
		InputSchema:          registry.Default().InputSchema(TaskType),
		RequireKnownCustomer: true,
	}
}
