package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrForbidden          = errors.New("caller does not own this project")
	ErrNotReady           = errors.New("project is not ready for this action")
	ErrProcessing         = errors.New("project is currently processing")
	ErrCompleted          = errors.New("project already completed")
	ErrEmptyScript        = errors.New("script content is empty")
	ErrNoAssets           = errors.New("project has no assets")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("operation failed")
)
