package generation

import (
	"strings"

	"github.com/dmitrymomot/replykit/pkg/sanitizer"
	"github.com/dmitrymomot/replykit/pkg/validator"
)

// MaxInputLength caps every free-text field, in runes.
const MaxInputLength = 2000

type Mode string

const (
	ModeSayItBetter Mode = "say_it_better"
	ModeToneReply   Mode = "tone_reply"
	ModeLegacy      Mode = "legacy"

	// Tool modes
	ModeStarters Mode = "conversation_starters"
	ModeCoach    Mode = "message_coach"
	ModeDecoder  Mode = "message_decoder"
)

// Request is one of SayItBetter, ToneReply or Legacy.
type Request interface {
	Mode() Mode
	prompt() Prompt
}

// SayItBetter rewrites the user's own draft. It carries no tone.
type SayItBetter struct {
	UserInput string
	Intent    string
}

// ToneReply answers a received message in a selected tone.
type ToneReply struct {
	Message string
	Tone    string
	Intent  string
}

// Legacy is the mode-less shape older clients send.
type Legacy struct {
	Message string
	Tone    string
	Intent  string
}

func (SayItBetter) Mode() Mode { return ModeSayItBetter }
func (ToneReply) Mode() Mode   { return ModeToneReply }
func (Legacy) Mode() Mode      { return ModeLegacy }

func (r SayItBetter) prompt() Prompt {
	return Prompt{Mode: ModeSayItBetter, Text: r.UserInput, Intent: r.Intent}
}

func (r ToneReply) prompt() Prompt {
	return Prompt{Mode: ModeToneReply, Text: r.Message, Tone: r.Tone, Intent: r.Intent}
}

func (r Legacy) prompt() Prompt {
	return Prompt{Mode: ModeLegacy, Text: r.Message, Tone: r.Tone, Intent: r.Intent}
}

// ToneOf returns the tone a request asks for; SayItBetter has none.
func ToneOf(req Request) (string, bool) {
	switch r := req.(type) {
	case ToneReply:
		return r.Tone, true
	case Legacy:
		return r.Tone, true
	}
	return "", false
}

// TextOf returns the text the tone label is detected on.
func TextOf(req Request) string {
	return req.prompt().Text
}

// RawRequest is the wire shape of POST /api/generate-replies.
type RawRequest struct {
	Mode             string `json:"mode"`
	UserInput        string `json:"userInput"`
	MessageToReplyTo string `json:"messageToReplyTo"`
	SelectedTone     string `json:"selectedTone"`
	Message          string `json:"message"`
	Tone             string `json:"tone"`
	Intent           string `json:"intent"`
}

// Decode selects exactly one Request variant. A missing field yields
// *MissingFieldError; an unknown mode yields validator.ValidationErrors.
func Decode(raw RawRequest) (Request, error) {
	clean := func(s string) string { return sanitizer.UserText(s, MaxInputLength) }
	intent := clean(raw.Intent)

	switch mode := Mode(strings.TrimSpace(raw.Mode)); mode {
	case ModeSayItBetter:
		r := SayItBetter{UserInput: clean(raw.UserInput), Intent: intent}
		if r.UserInput == "" {
			return nil, &MissingFieldError{Field: "userInput"}
		}
		return r, nil

	case ModeToneReply:
		r := ToneReply{Message: clean(raw.MessageToReplyTo), Tone: clean(raw.SelectedTone), Intent: intent}
		if r.Message == "" {
			return nil, &MissingFieldError{Field: "messageToReplyTo"}
		}
		if r.Tone == "" {
			return nil, &MissingFieldError{Field: "selectedTone"}
		}
		return r, nil

	case "":
		r := Legacy{Message: clean(raw.Message), Tone: clean(raw.Tone), Intent: intent}
		if r.Message == "" {
			return nil, &MissingFieldError{Field: "message"}
		}
		if r.Tone == "" {
			return nil, &MissingFieldError{Field: "tone"}
		}
		return r, nil

	default:
		return nil, validator.Apply(
			validator.OneOf("mode", mode, []Mode{ModeSayItBetter, ModeToneReply}),
		)
	}
}
