package devserver

import (
	"time"

	"taskdeck/internal/model"
)

type createTaskReq struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Category    *string    `json:"category"`
	AIGenerated bool       `json:"ai_generated"`
}

type updateTaskReq struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	Category    *string    `json:"category"`
	Status      *string    `json:"status"`
}

type listTasksQuery struct {
	Page     int    `form:"page"`
	Size     int    `form:"size"`
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Category string `form:"category"`
	DueFrom  string `form:"due_date_from"`
	DueTo    string `form:"due_date_to"`
	Search   string `form:"search"`
}

type improveTaskResp struct {
	Task                model.Task `json:"task"`
	OriginalDescription string     `json:"original_description"`
	ImprovedDescription string     `json:"improved_description"`
}

type generateTasksReq struct {
	Prompt  string `json:"prompt" binding:"required,max=5000"`
	Context string `json:"context"`
}

type generateTasksResp struct {
	Message        model.ChatMessage     `json:"message"`
	GeneratedTasks []model.GeneratedTask `json:"generated_tasks"`
}

type pageQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}
