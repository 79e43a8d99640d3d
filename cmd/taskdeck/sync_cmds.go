package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and pending offline work",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()

			fmt.Println("Backend: ", s.cfg.API.BaseURL)
			fmt.Println("State:   ", s.monitor.State())
			fmt.Println("Pending: ", s.queue.Len(), "queued operations")
			for _, op := range s.queue.Ops() {
				fmt.Printf("  %s task %d (queued %s, retries %d)\n",
					op.Kind, op.TaskID, op.EnqueuedAt.Format("2006-01-02 15:04:05"), op.Retries)
			}
			return nil
		},
	}
}

func newDrainCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay queued offline operations now",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()

			if s.queue.Len() == 0 {
				fmt.Println("Nothing to replay.")
				return nil
			}
			if !s.monitor.CheckNow(cmd.Context()) {
				return fmt.Errorf("backend unreachable; %d operations stay queued", s.queue.Len())
			}

			applied, err := s.syncer.DrainNow(cmd.Context())
			fmt.Printf("Replayed %d operations, %d remaining.\n", applied, s.queue.Len())
			return err
		},
	}
}

func newWatchCmd(getSession func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run in the foreground, syncing continuously until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSession()
			ctx := cmd.Context()

			s.monitor.Start(ctx)
			defer s.monitor.Stop()
			s.syncer.Start(ctx)
			defer s.syncer.Stop()

			fmt.Println("Watching for changes; Ctrl-C to stop.")
			<-ctx.Done()
			fmt.Println("Stopping.")
			return nil
		},
	}
}
