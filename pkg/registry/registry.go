// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// Task types of the built-in agent tools.
const (
	TaskFetchCustomerProfile = "fetch-customer-profile"
	TaskValidateLoanRequest  = "validate-loan-request"
)

var toolResponseSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"toolResponse"},
	"properties": map[string]interface{}{
		"toolResponse": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"status", "message"},
			"properties": map[string]interface{}{
				"status":  map[string]interface{}{"type": "string"},
				"message": map[string]interface{}{"type": "string"},
				"data":    map[string]interface{}{"type": []interface{}{"object", "null"}},
			},
		},
	},
}

// Default returns the built-in registry. Each call builds a fresh value.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:          "tool-fetch-customer-profile",
				DisplayName: "Fetch Customer Profile",
				Description: "Looks up a customer's credit profile by phone number",
				TaskType:    TaskFetchCustomerProfile,
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"phoneNumber"},
					"properties": map[string]interface{}{
						"phoneNumber": map[string]interface{}{"type": "string", "minLength": 1},
					},
				},
				OutputSchema: toolResponseSchema,
				ErrorCodes:   []string{"INPUT_INVALID", "STORE_UNAVAILABLE", "STORE_READ_FAILED"},
				Timeout:      "10s",
				Retries:      3,
				Tags:         []string{"customer", "profile"},
			},
			{
				ID:          "tool-validate-loan-request",
				DisplayName: "Validate Loan Request",
				Description: "Checks a loan request's shape and that the applicant is a known customer",
				TaskType:    TaskValidateLoanRequest,
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"loanRequest"},
					"properties": map[string]interface{}{
						"loanRequest": map[string]interface{}{"type": "object"},
					},
				},
				OutputSchema: toolResponseSchema,
				ErrorCodes:   []string{"INPUT_INVALID", "STORE_UNAVAILABLE", "STORE_READ_FAILED"},
				Timeout:      "10s",
				Retries:      3,
				Tags:         []string{"loan"},
			},
		},
	}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrDefault reads path when it is set and falls back to Default
// otherwise.
func LoadOrDefault(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadRegistry(path)
}
