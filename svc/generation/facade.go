package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/sanitizer"
)

const (
	// MaxVariants is the number of replies returned at most.
	MaxVariants = 3

	DefaultTimeout = 30 * time.Second

	FallbackReply = "Sorry, I couldn't come up with a reply right now. Please try again."
)

// Reply is one generated variant. IDs are 1-based and sequential.
type Reply struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Result is the outcome of a generation call.
type Result struct {
	Mode      Mode    `json:"mode"`
	Replies   []Reply `json:"replies"`
	ToneLabel string  `json:"toneLabel"`
	Fallback  bool    `json:"fallback,omitempty"`
}

// Facade wraps a Capability with a deadline, output normalization and the
// fallback reply.
type Facade struct {
	capability Capability
	timeout    time.Duration
	metrics    Metrics
	logger     *slog.Logger
}

type FacadeOption func(*Facade)

// WithTimeout bounds each capability call.
func WithTimeout(d time.Duration) FacadeOption {
	return func(f *Facade) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMetrics(m Metrics) FacadeOption {
	return func(f *Facade) {
		if m != nil {
			f.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) FacadeOption {
	return func(f *Facade) {
		if l != nil {
			f.logger = l
		}
	}
}

func NewFacade(c Capability, opts ...FacadeOption) *Facade {
	if c == nil {
		panic("generation: Capability is required")
	}
	f := &Facade{
		capability: c,
		timeout:    DefaultTimeout,
		metrics:    NoopMetrics{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Generate produces replies for a decoded request.
func (f *Facade) Generate(ctx context.Context, req Request) (*Result, error) {
	p := req.prompt()
	res, err := f.run(ctx, p)
	if err != nil {
		return nil, err
	}
	res.ToneLabel = DetectToneLabel(p.Text)
	return res, nil
}

// ConversationStarters suggests openers for a match's profile.
func (f *Facade) ConversationStarters(ctx context.Context, profile string) (*Result, error) {
	return f.tool(ctx, ModeStarters, "profile", profile)
}

// CoachMessage suggests improved versions of a draft.
func (f *Facade) CoachMessage(ctx context.Context, draft string) (*Result, error) {
	return f.tool(ctx, ModeCoach, "draft", draft)
}

// DecodeMessage explains what a received message likely means.
func (f *Facade) DecodeMessage(ctx context.Context, message string) (*Result, error) {
	return f.tool(ctx, ModeDecoder, "message", message)
}

func (f *Facade) tool(ctx context.Context, mode Mode, field, text string) (*Result, error) {
	text = sanitizer.UserText(text, MaxInputLength)
	if text == "" {
		return nil, &MissingFieldError{Field: field}
	}
	res, err := f.run(ctx, Prompt{Mode: mode, Text: text})
	if err != nil {
		return nil, err
	}
	res.ToneLabel = DetectToneLabel(text)
	return res, nil
}

func (f *Facade) run(ctx context.Context, p Prompt) (*Result, error) {
	log := f.logger.With(logger.Component("generation"), slog.String("mode", string(p.Mode)))
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	texts, err := f.capability.Generate(cctx, p)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded):
		f.metrics.Generation(p.Mode, "timeout", time.Since(start))
		log.WarnContext(ctx, "generation timed out", logger.Duration(time.Since(start)))
		return nil, ErrUpstreamTimeout
	case errors.Is(err, ErrMalformedOutput):
		f.metrics.Generation(p.Mode, "fallback", time.Since(start))
		log.WarnContext(ctx, "malformed model output, serving fallback", logger.Error(err))
		return &Result{Mode: p.Mode, Replies: []Reply{{ID: 1, Text: FallbackReply}}, Fallback: true}, nil
	default:
		f.metrics.Generation(p.Mode, "error", time.Since(start))
		log.ErrorContext(ctx, "generation failed", logger.Error(err))
		return nil, errors.Join(ErrUpstreamFailure, err)
	}

	replies := normalize(texts)
	if len(replies) == 0 {
		f.metrics.Generation(p.Mode, "fallback", time.Since(start))
		return &Result{Mode: p.Mode, Replies: []Reply{{ID: 1, Text: FallbackReply}}, Fallback: true}, nil
	}

	f.metrics.Generation(p.Mode, "success", time.Since(start))
	return &Result{Mode: p.Mode, Replies: replies}, nil
}

// normalize trims variants, drops empty ones, caps the list and numbers it.
func normalize(texts []string) []Reply {
	replies := make([]Reply, 0, MaxVariants)
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		replies = append(replies, Reply{ID: len(replies) + 1, Text: t})
		if len(replies) == MaxVariants {
			break
		}
	}
	return replies
}
