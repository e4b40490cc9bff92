package api

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/eventlog"
	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/validator"
)

type logEventRequest struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

func (a *API) logEvent(ctx handler.Context, req logEventRequest) handler.Response {
	name := strings.TrimSpace(req.Event)
	if err := validator.Apply(
		validator.Required("event", name),
		validator.MaxLen("event", name, eventlog.MaxNameLength),
	); err != nil {
		return handler.Error(err)
	}

	err := a.events.Log(ctx, name,
		eventlog.WithProperties(req.Properties),
		eventlog.WithUserAgent(ctx.Request().UserAgent()),
	)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{Message: "Event logged"}, handler.WithJSONStatus(http.StatusAccepted))
}

// track records a server-side analytics event. Failures are logged only.
func (a *API) track(ctx handler.Context, name string, props map[string]any) {
	err := a.events.Log(ctx, name,
		eventlog.WithProperties(props),
		eventlog.WithUserAgent(ctx.Request().UserAgent()),
	)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to record analytics event",
			logger.Event(name),
			logger.Error(err),
		)
	}
}
