package cmd

import (
	"github.com/sonar-protocol/kiosk-syncer/src/kiosk"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(syncOnceCmd)
}

var syncOnceCmd = &cobra.Command{
	Use:   "sync-once",
	Short: "Runs a single snapshot sync and exits. A skipped sync isn't an error",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("sync-once-cmd")

		outcome, err := kiosk.SyncOnce(applicationCtx, conf)
		if err != nil {
			return
		}

		entry := log.WithField("outcome", outcome.String())
		if outcome.Err != nil {
			entry = entry.WithError(outcome.Err)
		}
		entry.Info("Sync finished")

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		applicationCtxCancel()
		return
	},
}
