package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/condor/dota-stats/pkg/dota"
	"github.com/condor/dota-stats/pkg/w3g"
)

// inspectOutput is the JSON document printed per replay.
type inspectOutput struct {
	Replay   string               `json:"replay"`
	GameName string               `json:"game_name"`
	MapName  string               `json:"map_name"`
	Winner   string               `json:"winner"`
	Min      uint32               `json:"min"`
	Sec      uint32               `json:"sec"`
	Players  []*dota.PlayerRecord `json:"players"`
	Leavers  []w3g.Leaver         `json:"leavers"`
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <replay.w3g>",
		Short: "Print a replay's extracted statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replay, err := w3g.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse replay: %w", err)
			}

			// stats only; no sink, nothing is persisted
			log := logrus.NewEntry(logrus.StandardLogger())
			if !verbose {
				quiet := logrus.New()
				quiet.SetLevel(logrus.ErrorLevel)
				log = logrus.NewEntry(quiet)
			}

			result, err := runSession(replay, 0, nil, log)
			if err != nil {
				return fmt.Errorf("finalize stats: %w", err)
			}

			out := inspectOutput{
				Replay:   args[0],
				GameName: replay.GameName,
				MapName:  replay.MapName,
				Winner:   winnerName(result.Winner),
				Min:      result.Min,
				Sec:      result.Sec,
				Players:  result.Players,
				Leavers:  replay.Leavers,
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	return cmd
}

func winnerName(winner uint32) string {
	switch winner {
	case dota.WinnerSentinel:
		return "Sentinel"
	case dota.WinnerScourge:
		return "Scourge"
	default:
		return "None"
	}
}
