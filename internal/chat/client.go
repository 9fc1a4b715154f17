// Package chat talks to the agent backend's /chat endpoint and keeps the
// per-session transcript shown by the dashboard.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crediflow/internal/common/config"
	apperrors "crediflow/internal/common/errors"
	commonhttp "crediflow/internal/common/http"
	"crediflow/internal/common/logger"
	"crediflow/internal/common/metrics"
)

// DefaultTimeout bounds one agent turn.
const DefaultTimeout = 120 * time.Second

// Request is the /chat request body.
type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Response is the /chat reply. Trace is opaque and kept verbatim.
type Response struct {
	AgentResponse string          `json:"agent_response"`
	Trace         json.RawMessage `json:"trace"`
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
	std        *apperrors.StandardError
}

// NewStatusError builds a StatusError that unwraps to a CHAT_HTTP_STATUS
// StandardError.
func NewStatusError(statusCode int, body string) *StatusError {
	return &StatusError{
		StatusCode: statusCode,
		Body:       body,
		std:        apperrors.NewChatHTTPStatusError(statusCode, body),
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d - %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.std == nil {
		return nil
	}
	return e.std
}

// ConnectionError is returned when the backend cannot be reached or does
// not answer within the timeout.
type ConnectionError struct {
	Err error
	std *apperrors.StandardError
}

// NewConnectionError builds a ConnectionError that unwraps to a
// CHAT_CONNECTION StandardError.
func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{Err: err, std: apperrors.NewChatConnectionError(err)}
}

func (e *ConnectionError) Error() string {
	return e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	if e.std == nil {
		return e.Err
	}
	return e.std
}

// Client posts chat turns to {base}/chat.
type Client struct {
	http     *commonhttp.Client
	endpoint string
	log      logger.Logger
}

// NewClient builds a client for baseURL. A non-positive timeout selects
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		http:     commonhttp.NewClient(timeout),
		endpoint: config.ChatConfig{APIURL: baseURL}.Endpoint(),
		log:      log,
	}
}

// NewClientFromConfig builds a client from the chat config section.
func NewClientFromConfig(cfg config.ChatConfig, log logger.Logger) *Client {
	return NewClient(cfg.APIURL, time.Duration(cfg.TimeoutMS)*time.Millisecond, log)
}

func (c *Client) Endpoint() string { return c.endpoint }

// Send posts one message and waits for the agent's reply.
func (c *Client) Send(ctx context.Context, sessionID, message string) (*Response, error) {
	start := time.Now()
	resp, outcome, err := c.send(ctx, sessionID, message)
	metrics.ChatRequests.WithLabelValues(outcome).Inc()
	metrics.ChatRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Warn("Chat request failed", map[string]interface{}{
			"sessionId": sessionID,
			"outcome":   outcome,
			"error":     err,
		})
		return nil, err
	}
	c.log.Debug("Chat request completed", map[string]interface{}{
		"sessionId":  sessionID,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

func (c *Client) send(ctx context.Context, sessionID, message string) (*Response, string, error) {
	raw, err := c.http.PostJSON(ctx, c.endpoint, Request{SessionID: sessionID, Message: message})
	if err != nil {
		return nil, "connection_error", NewConnectionError(err)
	}
	if !raw.OK() {
		return nil, "http_error", NewStatusError(raw.StatusCode, string(raw.Body))
	}

	resp, err := decodeResponse(raw.Body)
	if err != nil {
		return nil, "decode_error", err
	}
	return resp, "ok", nil
}

// decodeResponse requires both agent_response and trace to be present; a
// null trace is accepted.
func decodeResponse(body []byte) (*Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	rawReply, ok := fields["agent_response"]
	if !ok {
		return nil, errors.New("chat response missing \"agent_response\"")
	}
	var reply string
	if err := json.Unmarshal(rawReply, &reply); err != nil {
		return nil, fmt.Errorf("decode agent_response: %w", err)
	}

	trace, ok := fields["trace"]
	if !ok {
		return nil, errors.New("chat response missing \"trace\"")
	}
	return &Response{AgentResponse: reply, Trace: trace}, nil
}
