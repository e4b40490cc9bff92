package eventlog

import "errors"

var (
	ErrEventValidation = errors.New("event validation failed")
	ErrStorageClosed   = errors.New("event storage is closed")
	ErrWriteFailed     = errors.New("failed to write event")
)
