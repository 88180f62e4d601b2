package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dota-stats",
		Short: "Extract DotA statistics from Warcraft III replays",
		Long: `dota-stats reads Warcraft III replay files of DotA games, replays the
map's embedded stat telemetry and produces per-player statistics. The
ingest command writes them to a database; inspect prints them as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; environment variables win either way
			_ = godotenv.Load()

			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newInspectCmd())
	return cmd
}
