package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrContextNotSet   = errors.New("request context not set")
	ErrDuplicateTool   = errors.New("tool already registered")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrIterationLimit  = errors.New("iteration limit exceeded")
)
