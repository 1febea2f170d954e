package contract

import "errors"

var (
	ErrModelInvoke       = errors.New("model invoke failed")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrPromptMissing     = errors.New("required prompt is missing")
	ErrValidation        = errors.New("validation failed")
	ErrConfig            = errors.New("configuration error")
	ErrTransport         = errors.New("transport error")
	ErrProtocol          = errors.New("rpc error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrResponseTimeout   = errors.New("model response timed out")
)
