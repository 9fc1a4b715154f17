// internal/models/tool_response.go
package models

import "crediflow/internal/common/validation"

// Known tool outcome statuses. The set is open; other values pass through.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusNeedsReview = "needs_review"
)

var toolResponseSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["status", "message"],
	"properties": {
		"status":  {"type": "string", "minLength": 1},
		"message": {"type": "string"},
		"data":    {"type": ["object", "null"]}
	}
}`)

// AgentToolResponse is the envelope a tool hands back to the orchestration
// layer.
type AgentToolResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func NewSuccessResponse(message string, data map[string]interface{}) *AgentToolResponse {
	return &AgentToolResponse{Status: StatusSuccess, Message: message, Data: data}
}

func NewErrorResponse(message string, data map[string]interface{}) *AgentToolResponse {
	return &AgentToolResponse{Status: StatusError, Message: message, Data: data}
}

func NewNeedsReviewResponse(message string, data map[string]interface{}) *AgentToolResponse {
	return &AgentToolResponse{Status: StatusNeedsReview, Message: message, Data: data}
}

// IsKnownStatus reports whether status is one of the documented values.
func IsKnownStatus(status string) bool {
	switch status {
	case StatusSuccess, StatusError, StatusNeedsReview:
		return true
	}
	return false
}

func ToolResponseFromMap(raw map[string]interface{}) (*AgentToolResponse, error) {
	if err := check("AgentToolResponse", toolResponseSchema, raw); err != nil {
		return nil, err
	}
	resp := &AgentToolResponse{
		Status:  stringField(raw, "status"),
		Message: stringField(raw, "message"),
	}
	if data, ok := raw["data"].(map[string]interface{}); ok {
		resp.Data = data
	}
	return resp, nil
}
