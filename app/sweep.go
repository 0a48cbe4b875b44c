package app

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/daemon"
)

func init() { //nolint: gochecknoinits
	sweepCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	rootCmd.AddCommand(sweepCmd)
}

// sweepCmd runs a single suggestion-expiry sweep and exits. It is intended
// for cron-style scheduling when the long-running daemon is not used.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire due link suggestions and exit",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := daemon.New(&cfg)
		if err != nil {
			return err
		}

		count, err := d.Engine().ExpireDueSuggestions(cmd.Context(), time.Now().UTC())
		if err != nil {
			return err
		}

		log.Info().Int64("expired", count).Msg("suggestion sweep finished")

		return nil
	},
}
