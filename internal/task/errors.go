package task

import "errors"

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidInput  = errors.New("invalid task input")
	ErrQueueFull     = errors.New("offline queue is full")
	ErrMutationFault = errors.New("mutation rejected by backend")
	ErrAIUnavailable = errors.New("ai service unavailable")
)
