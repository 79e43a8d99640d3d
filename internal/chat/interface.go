package chat

import (
	"context"

	"taskdeck/internal/model"
)

// UseCase is the AI chat surface: prompt-to-tasks generation, cached history,
// and turning accepted suggestions into real tasks.
type UseCase interface {
	GenerateTasks(ctx context.Context, ip GenerateInput) (GenerateOutput, error)
	Messages(ctx context.Context, page model.Page) (MessagesOutput, error)
	AcceptSuggestions(ctx context.Context, suggestions []model.GeneratedTask) (AcceptOutput, error)
	ClearHistory(ctx context.Context) error
}
