package devserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/model"
	"taskdeck/pkg/ollama"
	"taskdeck/pkg/response"
)

func (srv *Server) listTasks(c *gin.Context) {
	var q listTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err, nil)
		return
	}

	filters, err := q.toFilters()
	if err != nil {
		response.BadRequest(c, err, nil)
		return
	}

	page := model.Page{Page: q.Page, Size: q.Size}.Normalize()
	items, total := srv.store.ListTasks(filters, page)
	response.OK(c, response.NewPaginated(items, total, page.Page, page.Size))
}

func (q listTasksQuery) toFilters() (model.TaskFilters, error) {
	var f model.TaskFilters
	if q.Status != "" {
		s, err := model.ParseStatus(q.Status)
		if err != nil {
			return f, err
		}
		f.Status = &s
	}
	if q.Priority != "" {
		p, err := model.ParsePriority(q.Priority)
		if err != nil {
			return f, err
		}
		f.Priority = &p
	}
	f.Category = q.Category
	f.Search = q.Search
	if q.DueFrom != "" {
		t, err := time.Parse(time.RFC3339, q.DueFrom)
		if err != nil {
			return f, fmt.Errorf("due_date_from: %w", err)
		}
		f.DueFrom = &t
	}
	if q.DueTo != "" {
		t, err := time.Parse(time.RFC3339, q.DueTo)
		if err != nil {
			return f, fmt.Errorf("due_date_to: %w", err)
		}
		f.DueTo = &t
	}
	return f, nil
}

func (srv *Server) createTask(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err, nil)
		return
	}

	priority := model.PriorityMedium
	if req.Priority != "" {
		p, err := model.ParsePriority(req.Priority)
		if err != nil {
			response.BadRequest(c, err, nil)
			return
		}
		priority = p
	}

	created := srv.store.CreateTask(model.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		Category:    req.Category,
		AIGenerated: req.AIGenerated,
	})
	response.Created(c, created)
}

func (srv *Server) getTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, fmt.Errorf("invalid task id"), nil)
		return
	}
	t, ok := srv.store.GetTask(id)
	if !ok {
		response.NotFound(c, fmt.Sprintf("task %d not found", id))
		return
	}
	response.OK(c, t)
}

func (srv *Server) updateTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, fmt.Errorf("invalid task id"), nil)
		return
	}

	var req updateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err, nil)
		return
	}

	var priority *model.Priority
	if req.Priority != nil {
		p, err := model.ParsePriority(*req.Priority)
		if err != nil {
			response.BadRequest(c, err, nil)
			return
		}
		priority = &p
	}
	var status *model.TaskStatus
	if req.Status != nil {
		s, err := model.ParseStatus(*req.Status)
		if err != nil {
			response.BadRequest(c, err, nil)
			return
		}
		status = &s
	}
	if req.Title != nil && (*req.Title == "" || len(*req.Title) > 255) {
		response.BadRequest(c, fmt.Errorf("title must be 1-255 characters"), nil)
		return
	}

	updated, ok := srv.store.UpdateTask(id, func(t *model.Task) {
		if req.Title != nil {
			t.Title = *req.Title
		}
		if req.Description != nil {
			t.Description = req.Description
		}
		if req.DueDate != nil {
			t.DueDate = req.DueDate
		}
		if priority != nil {
			t.Priority = *priority
		}
		if req.Category != nil {
			t.Category = req.Category
		}
		if status != nil {
			t.Status = *status
		}
	})
	if !ok {
		response.NotFound(c, fmt.Sprintf("task %d not found", id))
		return
	}
	response.OK(c, updated)
}

func (srv *Server) deleteTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, fmt.Errorf("invalid task id"), nil)
		return
	}
	if !srv.store.DeleteTask(id) {
		response.NotFound(c, fmt.Sprintf("task %d not found", id))
		return
	}
	response.NoContent(c)
}

// completeTask toggles completion: a COMPLETED task flips back to PENDING.
func (srv *Server) completeTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, fmt.Errorf("invalid task id"), nil)
		return
	}
	toggled, ok := srv.store.UpdateTask(id, func(t *model.Task) {
		if t.Status == model.StatusCompleted {
			t.Status = model.StatusPending
		} else {
			t.Status = model.StatusCompleted
		}
	})
	if !ok {
		response.NotFound(c, fmt.Sprintf("task %d not found", id))
		return
	}
	response.OK(c, toggled)
}

// improveTask rewrites a task's description with the model, and suggests a
// category when the task has none. Unlike analyze there is no local
// heuristic worth faking, so an absent or unreachable model is a 503.
func (srv *Server) improveTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, fmt.Errorf("invalid task id"), nil)
		return
	}
	ctx := c.Request.Context()

	if srv.ai == nil || !srv.ai.CheckConnection(ctx, false) {
		response.Unavailable(c, "AI service is not available")
		return
	}

	t, ok := srv.store.GetTask(id)
	if !ok {
		response.NotFound(c, fmt.Sprintf("task %d not found", id))
		return
	}

	current := t.Title
	if t.Description != nil && *t.Description != "" {
		current = *t.Description
	}

	raw, err := srv.ai.Generate(ctx, ollama.BuildTaskImprovementPrompt(current), "")
	if err != nil {
		response.Unavailable(c, "AI service is not available")
		return
	}
	improved, err := ollama.ParseImprovedDescription(raw)
	if err != nil {
		srv.l.Warnf(ctx, "devserver: keeping original description: %v", err)
		improved = current
	}

	var category *string
	if t.Category == nil || *t.Category == "" {
		if rawCategory, err := srv.ai.Generate(ctx, ollama.BuildTaskCategorizationPrompt(current), ""); err == nil {
			suggested := ollama.ParseCategory(rawCategory)
			category = &suggested
		} else {
			srv.l.Warnf(ctx, "devserver: category suggestion failed: %v", err)
		}
	}

	updated, ok := srv.store.UpdateTask(id, func(t *model.Task) {
		t.Description = &improved
		if category != nil {
			t.Category = category
		}
	})
	if !ok {
		response.NotFound(c, fmt.Sprintf("task %d not found", id))
		return
	}

	response.OK(c, improveTaskResp{
		Task:                updated,
		OriginalDescription: current,
		ImprovedDescription: improved,
	})
}

func (srv *Server) analyzeWorkload(c *gin.Context) {
	ctx := c.Request.Context()
	analysis := srv.store.Analyze(time.Now().UTC())

	// The numeric aggregate is always local; the AI only adds the estimate
	// and recommendations when it is reachable.
	if srv.ai != nil && srv.ai.CheckConnection(ctx, false) {
		summary := srv.taskSummary()
		raw, err := srv.ai.Generate(ctx, ollama.BuildWorkloadAnalysisPrompt(summary), "")
		if err == nil {
			if estimate, recs, perr := ollama.ParseWorkloadAnalysis(raw); perr == nil {
				analysis.EstimatedCompletionTime = estimate
				analysis.Recommendations = recs
			} else {
				srv.l.Warnf(ctx, "devserver: unparseable analysis from model: %v", perr)
			}
		} else {
			srv.l.Warnf(ctx, "devserver: workload analysis generation failed: %v", err)
		}
	}
	if len(analysis.Recommendations) == 0 {
		analysis.EstimatedCompletionTime = float64(analysis.PendingTasks) * 0.5
		analysis.Recommendations = fallbackRecommendations(analysis)
	}
	response.OK(c, analysis)
}

// taskSummary renders the current tasks as a line-per-task digest for the
// analysis prompt.
func (srv *Server) taskSummary() string {
	tasks, _ := srv.store.ListTasks(model.TaskFilters{}, model.Page{Page: 1, Size: 100})
	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s] %s (%s)", t.Priority, t.Title, t.Status)
		if t.DueDate != nil {
			fmt.Fprintf(&b, " due %s", t.DueDate.Format("2006-01-02"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func fallbackRecommendations(a model.WorkloadAnalysis) []string {
	var recs []string
	if a.OverdueTasks > 0 {
		recs = append(recs, fmt.Sprintf("You have %d overdue tasks; tackle those first.", a.OverdueTasks))
	}
	if urgent := a.TasksByPriority[model.PriorityUrgent]; urgent > 0 {
		recs = append(recs, fmt.Sprintf("%d urgent tasks are pending; schedule them today.", urgent))
	}
	if a.PendingTasks > 10 {
		recs = append(recs, "Your backlog is large; consider breaking big tasks into smaller ones.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Workload looks manageable. Keep going.")
	}
	return recs
}
