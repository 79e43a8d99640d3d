package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskdeck/internal/cache"
	"taskdeck/internal/chat"
	"taskdeck/internal/model"
	"taskdeck/internal/task"
	"taskdeck/pkg/todoapi"
)

func (uc *implUseCase) GenerateTasks(ctx context.Context, ip chat.GenerateInput) (chat.GenerateOutput, error) {
	prompt := strings.TrimSpace(ip.Prompt)
	if prompt == "" {
		return chat.GenerateOutput{}, chat.ErrEmptyPrompt
	}
	if len(prompt) > chat.MaxPromptLength {
		return chat.GenerateOutput{}, chat.ErrPromptTooLong
	}
	// Generation always talks to the AI; there is nothing sensible to queue
	// for replay, so offline sessions get a clear error instead.
	if !uc.monitor.Online() {
		return chat.GenerateOutput{}, chat.ErrOffline
	}

	result, err := uc.repo.Generate(ctx, todoapi.GenerateTasksRequest{
		Prompt:  prompt,
		Context: ip.Context,
	})
	if err != nil {
		if todoapi.IsUnavailable(err) {
			return chat.GenerateOutput{}, chat.ErrAIUnavailable
		}
		return chat.GenerateOutput{}, err
	}

	// The backend validates suggestions too, but a second pass here keeps a
	// misbehaving server from feeding garbage into the accept flow.
	var suggestions []model.GeneratedTask
	for _, s := range result.GeneratedTasks {
		if err := s.Validate(); err != nil {
			uc.l.Warnf(ctx, "chat.GenerateTasks: skipping suggestion: %v", err)
			continue
		}
		suggestions = append(suggestions, s)
	}

	uc.cache.InvalidateKind(cache.KindChatMessages)
	return chat.GenerateOutput{
		Message:     result.Message,
		Suggestions: suggestions,
	}, nil
}

func (uc *implUseCase) Messages(ctx context.Context, page model.Page) (chat.MessagesOutput, error) {
	key := chat.MessagesCacheKey(page)
	p := page.Normalize()
	val, err := uc.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		mp, err := uc.repo.Messages(ctx, p.Page, p.Size)
		if err != nil {
			return nil, err
		}
		return chat.MessagesOutput{
			Messages: mp.Items,
			Total:    mp.Total,
			Page:     mp.Page,
			Size:     mp.Size,
			Pages:    mp.Pages,
		}, nil
	})
	if err != nil {
		if val != nil {
			uc.l.Warnf(ctx, "chat.Messages: serving stale history, refetch failed: %v", err)
			out := val.(chat.MessagesOutput)
			out.Stale = true
			return out, nil
		}
		return chat.MessagesOutput{}, err
	}
	return val.(chat.MessagesOutput), nil
}

func (uc *implUseCase) AcceptSuggestions(ctx context.Context, suggestions []model.GeneratedTask) (chat.AcceptOutput, error) {
	var out chat.AcceptOutput
	for _, s := range suggestions {
		if err := s.Validate(); err != nil {
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %v", s.Title, err))
			continue
		}
		var description *string
		if s.Description != "" {
			description = &s.Description
		}
		var category *string
		if s.SuggestedCategory != "" {
			category = &s.SuggestedCategory
		}
		created, err := uc.tasks.Create(ctx, task.CreateInput{
			Title:       s.Title,
			Description: description,
			DueDate:     s.SuggestedDueDate,
			Priority:    s.SuggestedPriority,
			Category:    category,
			AIGenerated: true,
		})
		if err != nil {
			// A full offline queue stops the whole batch; anything else just
			// skips the one suggestion.
			if errors.Is(err, task.ErrQueueFull) {
				return out, err
			}
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %v", s.Title, err))
			continue
		}
		out.Created = append(out.Created, created)
	}
	return out, nil
}

func (uc *implUseCase) ClearHistory(ctx context.Context) error {
	if !uc.monitor.Online() {
		return chat.ErrOffline
	}
	if err := uc.repo.Clear(ctx); err != nil {
		return err
	}
	uc.cache.InvalidateKind(cache.KindChatMessages)
	return nil
}
