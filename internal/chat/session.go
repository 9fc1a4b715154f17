package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ThinkingIndicator is shown while a turn is in flight.
const ThinkingIndicator = "Agent is thinking..."

// Sender is the part of Client a Session needs.
type Sender interface {
	Send(ctx context.Context, sessionID, message string) (*Response, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is the outcome of one Submit. Exactly one of Reply and ErrorText is
// set.
type Turn struct {
	Reply     string
	ErrorText string
	Err       error
}

func (t Turn) Failed() bool { return t.Err != nil }

// Session holds one dashboard conversation: a fixed session id, the
// transcript and the most recent trace. Turns are serialized.
type Session struct {
	id     string
	sender Sender

	mu        sync.Mutex
	messages  []Message
	lastTrace json.RawMessage
}

// NewSession starts a conversation with a fresh random id.
func NewSession(sender Sender) *Session {
	return &Session{id: uuid.NewString(), sender: sender}
}

func (s *Session) ID() string { return s.id }

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// LastTrace returns the trace of the latest turn, an error marker when that
// turn failed, or nil before the first turn.
func (s *Session) LastTrace() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTrace
}

// Submit records the user's message, performs one blocking call and
// records either the agent's reply or an error marker as the trace.
func (s *Session) Submit(ctx context.Context, text string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, Message{Role: RoleUser, Content: text})

	resp, err := s.sender.Send(ctx, s.id, text)
	if err != nil {
		display, marker := describeFailure(err)
		s.lastTrace = marker
		return Turn{ErrorText: display, Err: err}
	}

	s.lastTrace = resp.Trace
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: resp.AgentResponse})
	return Turn{Reply: resp.AgentResponse}
}

func describeFailure(err error) (string, json.RawMessage) {
	var statusErr *StatusError
	var connErr *ConnectionError

	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error(), errorMarker(statusErr.Body)
	case errors.As(err, &connErr):
		return fmt.Sprintf("Connection error: Could not reach API. Is it running? Error: %v", connErr.Err),
			errorMarker(fmt.Sprintf("Connection Error: %v", connErr.Err))
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err), errorMarker(err.Error())
	}
}

func errorMarker(text string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": text})
	return data
}

// Render writes the transcript followed by the trace panel.
func (s *Session) Render(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("== Customer Chat ==\n")
	for _, m := range s.messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	b.WriteString("\n")
	writeTrace(&b, s.lastTrace)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderTrace writes only the trace panel.
func (s *Session) RenderTrace(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	writeTrace(&b, s.lastTrace)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTrace(b *strings.Builder, trace json.RawMessage) {
	b.WriteString("== Agent Live Trace ==\n")
	if len(trace) == 0 || string(trace) == "null" {
		b.WriteString("The agent's thoughts and tool calls will appear here once the chat begins.\n")
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, trace, "", "  "); err != nil {
		b.Write(trace)
	} else {
		b.Write(pretty.Bytes())
	}
	b.WriteString("\n")
}
