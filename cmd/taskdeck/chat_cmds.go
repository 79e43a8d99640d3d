package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskdeck/internal/chat"
	"taskdeck/internal/model"
)

func newChatCmd(getSession func() *session) *cobra.Command {
	var (
		extraContext string
		accept       bool
	)

	cmd := &cobra.Command{
		Use:   "chat PROMPT",
		Short: "Generate task suggestions from a natural-language prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()

			out, err := s.chat.GenerateTasks(cmd.Context(), chat.GenerateInput{
				Prompt:  args[0],
				Context: extraContext,
			})
			if err != nil {
				return err
			}

			fmt.Println(out.Message.Content)
			if len(out.Suggestions) == 0 {
				fmt.Println("No task suggestions.")
				return nil
			}

			fmt.Printf("\n%d suggested tasks:\n", len(out.Suggestions))
			for i, sug := range out.Suggestions {
				line := fmt.Sprintf("%d. %s (%s, confidence %.0f%%)", i+1, sug.Title, sug.SuggestedPriority, sug.ConfidenceScore*100)
				if sug.SuggestedDueDate != nil {
					line += " due " + sug.SuggestedDueDate.Format("2006-01-02")
				}
				fmt.Println(line)
			}

			if !accept {
				fmt.Println("\nRe-run with --accept to add them to your list.")
				return nil
			}

			result, err := s.chat.AcceptSuggestions(cmd.Context(), out.Suggestions)
			if err != nil {
				return err
			}
			fmt.Printf("\nCreated %d tasks.\n", len(result.Created))
			for _, reason := range result.Skipped {
				fmt.Println("Skipped:", reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&extraContext, "context", "", "extra context for the AI")
	cmd.Flags().BoolVar(&accept, "accept", false, "create all suggested tasks")
	return cmd
}

func newHistoryCmd(getSession func() *session) *cobra.Command {
	var (
		page int
		size int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			out, err := s.chat.Messages(cmd.Context(), model.Page{Page: page, Size: size})
			if err != nil {
				return err
			}
			if out.Stale {
				fmt.Println("(showing cached data; backend unreachable)")
			}
			if len(out.Messages) == 0 {
				fmt.Println("No chat history.")
				return nil
			}
			for _, m := range out.Messages {
				role := "you"
				if m.Role == model.RoleAssistant {
					role = "ai"
				}
				fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), role, m.Content)
			}
			fmt.Printf("\nPage %d/%d (%d messages)\n", out.Page, out.Pages, out.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	return cmd
}

func newClearHistoryCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-history",
		Short: "Delete all chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			if err := s.chat.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Chat history cleared.")
			return nil
		},
	}
}
