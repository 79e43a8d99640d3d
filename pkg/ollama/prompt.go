package ollama

import (
	"fmt"
	"strings"
)

// TaskGenerationPrompt asks the model to convert a free-form request into a
// strict JSON array of task suggestions.
const TaskGenerationPrompt = `You are a helpful task management assistant. Convert the following user request into a structured list of actionable tasks.

User request: %s

Please respond with a JSON array of tasks, each containing:
- title: A clear, actionable task title (max 255 characters)
- description: Detailed description of what needs to be done
- suggested_due_date: ISO format date when this should be completed (if applicable, otherwise null)
- suggested_priority: LOW, MEDIUM, HIGH, or URGENT
- suggested_category: WORK, PERSONAL, HEALTH, FINANCE, LEARNING, SHOPPING, or OTHER
- confidence_score: A float between 0.0 and 1.0 indicating how confident you are about this task

Response format: JSON array only, no additional text or explanation.`

// WorkloadAnalysisPrompt asks the model for completion estimates and
// recommendations over a task summary.
const WorkloadAnalysisPrompt = `Analyze the following task list and provide insights about workload and time management.

Tasks:
%s

Please provide a JSON response with:
- estimated_completion_time: Total estimated hours to complete all pending tasks
- recommendations: Array of 3-5 actionable recommendations for better task management

Response format: JSON only, no additional text.`

// TaskImprovementPrompt asks the model to rewrite a task description.
const TaskImprovementPrompt = `Improve the following task description to make it more actionable and clear.

Current description: %s

Provide a better, more specific description that:
- Is clear and actionable
- Includes specific steps if needed
- Is concise but comprehensive

Respond with only the improved description.`

// TaskCategorizationPrompt asks the model for a single category name.
const TaskCategorizationPrompt = `Categorize the following task into one of these categories: WORK, PERSONAL, HEALTH, FINANCE, LEARNING, SHOPPING, or OTHER.

Task: %s

Respond with only the category name.`

// BuildTaskGenerationPrompt fills the generation template, folding optional
// extra context into the request text.
func BuildTaskGenerationPrompt(userPrompt, extraContext string) string {
	request := strings.TrimSpace(userPrompt)
	if extraContext = strings.TrimSpace(extraContext); extraContext != "" {
		request = request + "\n\nAdditional context: " + extraContext
	}
	return fmt.Sprintf(TaskGenerationPrompt, request)
}

// BuildWorkloadAnalysisPrompt fills the analysis template.
func BuildWorkloadAnalysisPrompt(tasksSummary string) string {
	return fmt.Sprintf(WorkloadAnalysisPrompt, tasksSummary)
}

// BuildTaskImprovementPrompt fills the improvement template.
func BuildTaskImprovementPrompt(description string) string {
	return fmt.Sprintf(TaskImprovementPrompt, strings.TrimSpace(description))
}

// BuildTaskCategorizationPrompt fills the categorization template.
func BuildTaskCategorizationPrompt(taskDescription string) string {
	return fmt.Sprintf(TaskCategorizationPrompt, strings.TrimSpace(taskDescription))
}
