package main

import (
	"github.com/spf13/cobra"

	"taskdeck/config"
	"taskdeck/pkg/log"
)

func newRootCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var (
		s            *session
		forceOffline bool
	)

	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Offline-capable task manager with AI chat",
		Long:          "taskdeck manages your to-do list against a backend API, keeps working while offline, and syncs queued changes when the connection returns.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			s, err = newSession(cmd.Context(), cfg, logger, forceOffline)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s != nil {
				s.close(cmd.Context())
			}
		},
	}

	// The session pointer is filled in by PersistentPreRunE before any
	// subcommand runs.
	getSession := func() *session { return s }

	root.PersistentFlags().BoolVar(&forceOffline, "offline", false, "skip connectivity probing and work from local state")

	root.AddCommand(
		newListCmd(getSession),
		newAddCmd(getSession),
		newShowCmd(getSession),
		newUpdateCmd(getSession),
		newDoneCmd(getSession),
		newRemoveCmd(getSession),
		newImproveCmd(getSession),
		newAnalyzeCmd(getSession),
		newChatCmd(getSession),
		newHistoryCmd(getSession),
		newClearHistoryCmd(getSession),
		newStatusCmd(getSession),
		newDrainCmd(getSession),
		newWatchCmd(getSession),
	)
	return root
}
