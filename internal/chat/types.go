package chat

import (
	"strconv"

	"taskdeck/internal/cache"
	"taskdeck/internal/model"
)

// MaxPromptLength caps chat input, matching the backend's validation.
const MaxPromptLength = 5000

// GenerateInput is a chat prompt plus optional extra context for the model.
type GenerateInput struct {
	Prompt  string
	Context string
}

// GenerateOutput is the assistant reply with its validated suggestions.
type GenerateOutput struct {
	Message     model.ChatMessage
	Suggestions []model.GeneratedTask
}

// MessagesOutput is one page of chat history.
type MessagesOutput struct {
	Messages []model.ChatMessage
	Total    int
	Page     int
	Size     int
	Pages    int
	Stale    bool
}

// AcceptOutput reports which suggestions became tasks and which were
// rejected before reaching the backend.
type AcceptOutput struct {
	Created []model.Task
	Skipped []string
}

// MessagesCacheKey builds the cache key for a history page.
func MessagesCacheKey(page model.Page) cache.Key {
	p := page.Normalize()
	return cache.NewKey(cache.KindChatMessages, map[string]string{
		"page": strconv.Itoa(p.Page),
		"size": strconv.Itoa(p.Size),
	})
}
