package chat

import "errors"

var (
	ErrEmptyPrompt   = errors.New("prompt is empty")
	ErrPromptTooLong = errors.New("prompt exceeds the maximum length")
	ErrAIUnavailable = errors.New("ai service is unavailable")
	ErrOffline       = errors.New("chat requires a connection")
)
