// Package errors provides the error taxonomy shared by the profile store, the
// chat client and the orchestration workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Error Kinds
// ==========================

// Kind sentinels. Every error produced by the store or the chat client
// matches exactly one of them through errors.Is.
var (
	ErrUnavailable = stderrors.New("store unavailable")
	ErrNotFound    = stderrors.New("not found")
	ErrInvalid     = stderrors.New("invalid record")
	ErrTransport   = stderrors.New("transport failure")
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileInvalid     ErrorCode = "PROFILE_INVALID"
	ErrCodeStoreReadFailed    ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed   ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeLoanRequestInvalid ErrorCode = "LOAN_REQUEST_INVALID"
	ErrCodeInputInvalid       ErrorCode = "INPUT_INVALID"
	ErrCodeChatHTTPStatus     ErrorCode = "CHAT_HTTP_STATUS"
	ErrCodeChatConnection     ErrorCode = "CHAT_CONNECTION"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	kind  error
	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *StandardError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

func newError(kind error, code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		kind:      kind,
		cause:     cause,
	}
}

// ==========================
// 2. Constructors
// ==========================

// NewStoreUnavailableError reports a client that never connected.
func NewStoreUnavailableError(reason error) *StandardError {
	details := "client not initialized"
	if reason != nil {
		details = reason.Error()
	}
	return newError(ErrUnavailable, ErrCodeStoreUnavailable, "Profile store not available", details, true, reason)
}

// NewProfileNotFoundError reports that no document exists for the key.
func NewProfileNotFoundError(phoneNumber string) *StandardError {
	return newError(ErrNotFound, ErrCodeProfileNotFound, "Customer not found",
		fmt.Sprintf("phoneNumber: %s", phoneNumber), false, nil)
}

// NewProfileInvalidError reports a stored or seeded record that fails the schema.
func NewProfileInvalidError(phoneNumber string, cause error) *StandardError {
	return newError(ErrInvalid, ErrCodeProfileInvalid, "Customer record failed validation",
		fmt.Sprintf("phoneNumber: %s, error: %v", phoneNumber, cause), false, cause)
}

func NewStoreReadFailedError(phoneNumber string, cause error) *StandardError {
	return newError(ErrTransport, ErrCodeStoreReadFailed, "Profile store read failed",
		fmt.Sprintf("phoneNumber: %s, error: %v", phoneNumber, cause), true, cause)
}

func NewStoreWriteFailedError(count int, cause error) *StandardError {
	return newError(ErrTransport, ErrCodeStoreWriteFailed, "Profile store batch write failed",
		fmt.Sprintf("records: %d, error: %v", count, cause), true, cause)
}

func NewLoanRequestInvalidError(cause error) *StandardError {
	return newError(ErrInvalid, ErrCodeLoanRequestInvalid, "Loan request failed validation",
		fmt.Sprint(cause), false, cause)
}

// NewInputInvalidError reports job variables that cannot be used.
func NewInputInvalidError(cause error) *StandardError {
	return newError(ErrInvalid, ErrCodeInputInvalid, "Job input is invalid",
		fmt.Sprint(cause), false, cause)
}

// NewChatHTTPStatusError reports a non-2xx answer from the chat backend.
func NewChatHTTPStatusError(statusCode int, body string) *StandardError {
	se := newError(ErrTransport, ErrCodeChatHTTPStatus, "Chat backend returned an error status",
		body, false, nil)
	se.Metadata = map[string]interface{}{"statusCode": statusCode}
	return se
}

func NewChatConnectionError(cause error) *StandardError {
	return newError(ErrTransport, ErrCodeChatConnection, "Chat backend unreachable",
		fmt.Sprint(cause), false, cause)
}

// ==========================
// 3. Classification
// ==========================

// KindOf returns the kind sentinel err matches, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrUnavailable, ErrNotFound, ErrInvalid, ErrTransport} {
		if stderrors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// AsStandardError extracts a *StandardError from the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// GetRetryCount returns the number of job retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeStoreReadFailed, ErrCodeStoreWriteFailed:
		return 3
	case ErrCodeChatConnection:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode reports whether a code should be retried.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "STORE"):
		return "STORE"
	case strings.HasPrefix(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.HasPrefix(codeStr, "CHAT"):
		return "CHAT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}

// ==========================
// 4. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job failure variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError maps a StandardError onto the workflow error shape.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"errorCategory": GetErrorCategory(stdErr.Code),
			"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}
