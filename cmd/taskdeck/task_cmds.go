package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskdeck/internal/model"
	"taskdeck/internal/task"
)

func newListCmd(getSession func() *session) *cobra.Command {
	var (
		status   string
		priority string
		category string
		search   string
		page     int
		size     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()

			var filters model.TaskFilters
			if status != "" {
				st, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				filters.Status = &st
			}
			if priority != "" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				filters.Priority = &p
			}
			filters.Category = category
			filters.Search = search

			out, err := s.tasks.List(cmd.Context(), task.ListInput{
				Filters: filters,
				Page:    model.Page{Page: page, Size: size},
			})
			if err != nil {
				return err
			}

			if out.Stale {
				fmt.Println("(showing cached data; backend unreachable)")
			}
			if len(out.Tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			for _, t := range out.Tasks {
				printTaskLine(t)
			}
			fmt.Printf("\nPage %d/%d (%d tasks)\n", out.Page, out.Pages, out.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (PENDING, IN_PROGRESS, COMPLETED)")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority (LOW, MEDIUM, HIGH, URGENT)")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&search, "search", "", "search in title and description")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	return cmd
}

func newAddCmd(getSession func() *session) *cobra.Command {
	var (
		description string
		due         string
		priority    string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()

			ip := task.CreateInput{Title: args[0]}
			if description != "" {
				ip.Description = &description
			}
			if category != "" {
				ip.Category = &category
			}
			if priority != "" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				ip.Priority = p
			}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				ip.DueDate = &d
			}

			created, err := s.tasks.Create(cmd.Context(), ip)
			if err != nil {
				return err
			}
			if created.ID < 0 {
				fmt.Printf("Queued offline as %d (syncs when back online):\n", created.ID)
			}
			printTaskLine(created)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "desc", "", "task description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (LOW, MEDIUM, HIGH, URGENT)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	return cmd
}

func newShowCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			out, err := s.tasks.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out.Stale {
				fmt.Println("(showing cached data; backend unreachable)")
			}
			printTaskDetail(out.Task)
			return nil
		},
	}
}

func newUpdateCmd(getSession func() *session) *cobra.Command {
	var (
		title       string
		description string
		due         string
		priority    string
		category    string
		status      string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a task (only the given flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			ip := task.UpdateInput{ID: id}
			if cmd.Flags().Changed("title") {
				ip.Title = &title
			}
			if cmd.Flags().Changed("desc") {
				ip.Description = &description
			}
			if cmd.Flags().Changed("category") {
				ip.Category = &category
			}
			if cmd.Flags().Changed("priority") {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				ip.Priority = &p
			}
			if cmd.Flags().Changed("status") {
				st, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				ip.Status = &st
			}
			if cmd.Flags().Changed("due") {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				ip.DueDate = &d
			}

			updated, err := s.tasks.Update(cmd.Context(), ip)
			if err != nil {
				return err
			}
			printTaskLine(updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "desc", "", "new description")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	return cmd
}

func newDoneCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle task completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			toggled, err := s.tasks.ToggleComplete(cmd.Context(), id)
			if err != nil {
				return err
			}
			printTaskLine(toggled)
			return nil
		},
	}
}

func newRemoveCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			if err := s.tasks.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Task %d deleted.\n", id)
			return nil
		},
	}
}

func newImproveCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "improve ID",
		Short: "Rewrite a task's description with AI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			out, err := s.tasks.Improve(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println("Before:", out.OriginalDescription)
			fmt.Println("After: ", out.ImprovedDescription)
			printTaskDetail(out.Task)
			return nil
		},
	}
}

func newAnalyzeCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyze workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			a, err := s.tasks.Analyze(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Tasks: %d total, %d completed, %d pending, %d overdue\n",
				a.TotalTasks, a.CompletedTasks, a.PendingTasks, a.OverdueTasks)
			for _, p := range []model.Priority{model.PriorityUrgent, model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
				if n := a.TasksByPriority[p]; n > 0 {
					fmt.Printf("  %-7s %d\n", p, n)
				}
			}
			if a.EstimatedCompletionTime > 0 {
				fmt.Printf("Estimated completion: %.1f hours\n", a.EstimatedCompletionTime)
			}
			for _, r := range a.Recommendations {
				fmt.Println("  •", r)
			}
			return nil
		},
	}
}

func printTaskLine(t model.Task) {
	mark := " "
	if t.Status == model.StatusCompleted {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] #%d %s (%s)", mark, t.ID, t.Title, t.Priority)
	if t.DueDate != nil {
		line += " due " + t.DueDate.Format("2006-01-02")
	}
	if t.AIGenerated {
		line += " [AI]"
	}
	fmt.Println(line)
}

func printTaskDetail(t model.Task) {
	printTaskLine(t)
	if t.Description != nil && *t.Description != "" {
		fmt.Println("  ", *t.Description)
	}
	if t.Category != nil && *t.Category != "" {
		fmt.Println("   Category:", *t.Category)
	}
	fmt.Println("   Status:  ", t.Status)
	fmt.Println("   Updated: ", t.UpdatedAt.Format(time.RFC3339))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q, use YYYY-MM-DD or RFC3339", s)
}
