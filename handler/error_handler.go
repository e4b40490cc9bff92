package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/requestid"
)

// ErrorInfo contains classified error information
type ErrorInfo struct {
	StatusCode int
	LogLevel   slog.Level
}

// ErrorMapper translates domain errors into HTTPError or ValidationError values
// before they are rendered. Returning the input unchanged is allowed.
type ErrorMapper func(err error) error

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

func determineLogLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{StatusCode: http.StatusInternalServerError}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
	}

	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		info.StatusCode = http.StatusBadRequest
	}

	info.LogLevel = determineLogLevel(info.StatusCode)
	return info
}

func logError(log *slog.Logger, ctx Context, err error, info ErrorInfo) {
	r := ctx.Request()
	log.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.RequestID(requestid.FromContext(r.Context())),
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("error_handler"),
	)
}

// NewErrorHandler creates an error handler that logs the failure and renders
// the JSON error envelope. Mappers run in order before classification.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		mapped := err
		for _, m := range mappers {
			mapped = m(mapped)
		}
		info := classifyError(mapped)
		// the original error is logged so the cause survives mapping
		logError(log, ctx, err, info)

		var opts []JSONOption
		var metaErr MetaError
		if errors.As(mapped, &metaErr) && len(metaErr.Meta) > 0 {
			opts = append(opts, WithJSONMeta(metaErr.Meta))
		}

		if renderErr := JSONError(mapped, opts...).Render(ctx.ResponseWriter(), ctx.Request()); renderErr != nil {
			log.Error("failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}
