package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

type stringExtractor func(context.Context) string

// Logger builds events from context and writes them to a Storage.
type Logger struct {
	storage            Storage
	userIDExtractor    func(context.Context) (int64, bool)
	sessionIDExtractor stringExtractor
	requestIDExtractor stringExtractor
	ipExtractor        stringExtractor
}

// New creates an event logger. It panics on a nil storage.
func New(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("eventlog: storage cannot be nil")
	}
	l := &Logger{storage: storage}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records an event named name.
func (l *Logger) Log(ctx context.Context, name string, opts ...EventOption) error {
	event := l.eventFromContext(ctx)
	event.ID = uuid.New().String()
	event.Name = name
	event.CreatedAt = time.Now().UTC()

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	return l.storage.Store(ctx, event)
}

func (l *Logger) eventFromContext(ctx context.Context) Event {
	event := Event{}

	if l.userIDExtractor != nil {
		if id, ok := l.userIDExtractor(ctx); ok {
			event.UserID = &id
		}
	}
	if l.sessionIDExtractor != nil {
		event.SessionID = l.sessionIDExtractor(ctx)
	}
	if l.requestIDExtractor != nil {
		event.RequestID = l.requestIDExtractor(ctx)
	}
	if l.ipExtractor != nil {
		event.IP = l.ipExtractor(ctx)
	}

	return event
}
