package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrInvalidPath          = errors.New("invalid path parameters")
	ErrInvalidHeader        = errors.New("invalid request headers")
	ErrMissingContentType   = errors.New("missing content type")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrFailedToReadBody     = errors.New("failed to read request body")

	// ErrBinderNotApplicable tells the handler to skip the binder for this request.
	ErrBinderNotApplicable = errors.New("binder not applicable")
)
