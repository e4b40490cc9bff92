// Package handler provides type-safe HTTP request handling for the JSON API.
//
// Handlers are generic functions that receive a bound request value and return
// a Response:
//
//	type loginRequest struct {
//		Username string `json:"username"`
//		Password string `json:"password"`
//	}
//
//	func login(ctx handler.Context, req loginRequest) handler.Response {
//		user, err := accounts.Authenticate(ctx, req.Username, req.Password)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(user)
//	}
//
//	r.Post("/api/login", handler.Wrap(login, handler.WithBinders[handler.Context, loginRequest](binder.JSON())))
//
// Responses use a single envelope:
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "...", "details": {...}}}
//
// Errors returned by binders or by rendering go to the configured ErrorHandler.
// NewErrorHandler builds one that logs the failure with the request id and
// writes the envelope with an appropriate status.
//
// HTTPError carries a status code and a machine-readable key. ValidationError
// collects per-field messages and always renders with the validation_error code.
package handler
