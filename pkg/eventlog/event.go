package eventlog

import (
	"fmt"
	"maps"
	"time"
)

// Event is a single analytics record.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	UserID     *int64         `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MaxNameLength bounds event names supplied by clients.
const MaxNameLength = 100

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", ErrEventValidation)
	}
	if len(e.Name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d", ErrEventValidation, MaxNameLength)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// WithProperties merges props into the event properties.
func WithProperties(props map[string]any) EventOption {
	return func(e *Event) {
		if len(props) == 0 {
			return
		}
		if e.Properties == nil {
			e.Properties = make(map[string]any, len(props))
		}
		maps.Copy(e.Properties, props)
	}
}

func WithUserAgent(ua string) EventOption {
	return func(e *Event) {
		e.UserAgent = ua
	}
}
