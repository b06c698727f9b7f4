package cmd

import (
	"github.com/sonar-protocol/kiosk-syncer/src/kiosk"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Periodically copies the kiosk snapshot from the Sui marketplace object to the database",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := kiosk.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished sync command")
		applicationCtxCancel()
		return
	},
}
