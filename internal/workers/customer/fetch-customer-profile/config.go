// internal/workers/customer/fetch-customer-profile/config.go
package fetchcustomerprofile

import (
	"time"

	"crediflow/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		InputSchema: registry.Default().InputSchema(TaskType),
	}
}
