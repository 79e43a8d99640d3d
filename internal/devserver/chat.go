package devserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/model"
	"taskdeck/pkg/ollama"
	"taskdeck/pkg/response"
)

func (srv *Server) generateTasks(c *gin.Context) {
	var req generateTasksReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err, nil)
		return
	}
	ctx := c.Request.Context()

	srv.store.AppendMessage(model.ChatMessage{
		Content: req.Prompt,
		Role:    model.RoleUser,
	})

	suggestions, reply, err := srv.suggest(c, req)
	if err != nil {
		response.Unavailable(c, err.Error())
		return
	}

	assistant := srv.store.AppendMessage(model.ChatMessage{
		Content:        reply,
		Role:           model.RoleAssistant,
		GeneratedTasks: suggestions,
	})

	srv.l.Infof(ctx, "devserver: generated %d task suggestions", len(suggestions))
	response.OK(c, generateTasksResp{
		Message:        assistant,
		GeneratedTasks: suggestions,
	})
}

// suggest asks the AI for task suggestions, falling back to a canned heuristic
// when no model is configured. An unreachable configured model is a 503: the
// client treats that differently from an empty result.
func (srv *Server) suggest(c *gin.Context, req generateTasksReq) ([]model.GeneratedTask, string, error) {
	ctx := c.Request.Context()

	if srv.ai == nil {
		return fallbackSuggestions(req.Prompt), "Here are some suggested tasks based on your request.", nil
	}

	if !srv.ai.CheckConnection(ctx, false) {
		return nil, "", fmt.Errorf("AI service is not available")
	}

	raw, err := srv.ai.Generate(ctx, ollama.BuildTaskGenerationPrompt(req.Prompt, req.Context), "")
	if err != nil {
		return nil, "", fmt.Errorf("AI service is not available")
	}

	suggestions, skipped, err := ollama.ParseGeneratedTasks(raw)
	if err != nil {
		srv.l.Warnf(ctx, "devserver: unparseable generation response: %v", err)
		return fallbackSuggestions(req.Prompt), "Here are some suggested tasks based on your request.", nil
	}
	for _, reason := range skipped {
		srv.l.Warnf(ctx, "devserver: skipped suggestion: %s", reason)
	}
	return suggestions, fmt.Sprintf("I generated %d tasks from your request.", len(suggestions)), nil
}

// fallbackSuggestions produces a single generic task so the flow stays usable
// in tests and model-less development.
func fallbackSuggestions(prompt string) []model.GeneratedTask {
	title := strings.TrimSpace(prompt)
	if len(title) > 60 {
		title = title[:60]
	}
	due := time.Now().UTC().Add(72 * time.Hour)
	return []model.GeneratedTask{{
		Title:             title,
		Description:       "Generated from: " + strings.TrimSpace(prompt),
		SuggestedDueDate:  &due,
		SuggestedPriority: model.PriorityMedium,
		SuggestedCategory: "OTHER",
		ConfidenceScore:   0.5,
	}}
}

func (srv *Server) listMessages(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err, nil)
		return
	}
	page := model.Page{Page: q.Page, Size: q.Size}.Normalize()
	items, total := srv.store.ListMessages(page)
	response.OK(c, response.NewPaginated(items, total, page.Page, page.Size))
}

func (srv *Server) clearMessages(c *gin.Context) {
	srv.store.ClearMessages()
	response.NoContent(c)
}
