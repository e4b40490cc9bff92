package api

import (
	"context"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
)

// generationResponse flattens the generation result; Subscription is the
// caller's metering after the charge and is omitted for anonymous callers.
type generationResponse struct {
	*generation.Result
	Subscription *subscription.Status `json:"subscription,omitempty"`
}

type startersRequest struct {
	Profile string `json:"profile"`
}

type coachRequest struct {
	Draft string `json:"draft"`
}

type decoderRequest struct {
	Message string `json:"message"`
}

type tonesResponse struct {
	Tier  subscription.Tier `json:"tier"`
	Tones gate.Catalog      `json:"tones"`
}

func (a *API) generateReplies(ctx handler.Context, raw generation.RawRequest) handler.Response {
	req, err := generation.Decode(raw)
	if err != nil {
		return handler.Error(err)
	}

	ident, err := a.identity(ctx)
	if err != nil {
		return handler.Error(err)
	}
	ticket, err := a.gate.AuthorizeGeneration(ctx, ident, req)
	if err != nil {
		return handler.Error(err)
	}
	if err := a.checkAnonQuota(ctx, ident); err != nil {
		return handler.Error(err)
	}

	res, err := a.generator.Generate(ctx, req)
	if err != nil {
		return handler.Error(err)
	}

	props := generationProps(res)
	if ticket.Tone != nil {
		props["tone"] = ticket.Tone.Key
	}
	a.track(ctx, "generation", props)

	return handler.JSON(generationResponse{Result: res, Subscription: a.meter(ctx, ticket, res)})
}

func (a *API) conversationStarters(ctx handler.Context, req startersRequest) handler.Response {
	return a.runTool(ctx, gate.ToolStarters, func(ctx context.Context) (*generation.Result, error) {
		return a.generator.ConversationStarters(ctx, req.Profile)
	})
}

func (a *API) messageCoach(ctx handler.Context, req coachRequest) handler.Response {
	return a.runTool(ctx, gate.ToolCoach, func(ctx context.Context) (*generation.Result, error) {
		return a.generator.CoachMessage(ctx, req.Draft)
	})
}

func (a *API) messageDecoder(ctx handler.Context, req decoderRequest) handler.Response {
	return a.runTool(ctx, gate.ToolDecoder, func(ctx context.Context) (*generation.Result, error) {
		return a.generator.DecodeMessage(ctx, req.Message)
	})
}

func (a *API) runTool(ctx handler.Context, tool gate.Tool, run func(context.Context) (*generation.Result, error)) handler.Response {
	ident, err := a.identity(ctx)
	if err != nil {
		return handler.Error(err)
	}
	ticket, err := a.gate.AuthorizeTool(ctx, ident, tool)
	if err != nil {
		return handler.Error(err)
	}

	res, err := run(ctx)
	if err != nil {
		return handler.Error(err)
	}

	a.track(ctx, "generation", generationProps(res))
	return handler.JSON(generationResponse{Result: res, Subscription: a.meter(ctx, ticket, res)})
}

func (a *API) tones(ctx handler.Context, _ struct{}) handler.Response {
	ident, err := a.identity(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(tonesResponse{Tier: ident.Tier, Tones: a.gate.Catalog()})
}

func generationProps(res *generation.Result) map[string]any {
	return map[string]any{
		"mode":      string(res.Mode),
		"toneLabel": res.ToneLabel,
		"variants":  len(res.Replies),
		"fallback":  res.Fallback,
	}
}
