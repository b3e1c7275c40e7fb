package errors

import "errors"

var (
	ErrParameterNotFound   = errors.New("parameter not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrNoProjectConfigured = errors.New("no project configured for target")
	ErrInvalidEntity       = errors.New("invalid entity")
	ErrInvalidAction       = errors.New("invalid action")
	ErrInvalidProjectArn   = errors.New("invalid project ARN")
)
