// Package logger builds *slog.Logger values configured through functional
// options and provides attribute helpers shared by every package.
//
// New wraps the slog handler with LogHandlerDecorator, which runs registered
// ContextExtractor callbacks on each record. That is how request ids and the
// deployment environment end up on every line logged with a request context:
//
//	log := logger.New(
//		logger.WithEnvironment(env, "replykit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "subscription activated", logger.UserID(id), logger.Tier("pro"))
package logger
