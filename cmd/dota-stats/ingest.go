package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/condor/dota-stats/internal/store"
	"github.com/condor/dota-stats/pkg/w3g"
)

func newIngestCmd() *cobra.Command {
	var (
		dsn        string
		sqlitePath string
		botID      uint32
		gameID     uint32
	)

	cmd := &cobra.Command{
		Use:   "ingest <replay.w3g> [more replays...]",
		Short: "Extract statistics from replays and write them to a database",
		Long: `ingest parses each replay, replays its stat telemetry and writes the
resulting game, player and event rows. With --dsn (or DATABASE_URL) the
target is PostgreSQL; otherwise a SQLite file is created as needed.
Game IDs are assigned sequentially starting from --game-id.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}

			st, err := openStore(cmd.Context(), dsn, sqlitePath)
			if err != nil {
				return err
			}

			queue := store.NewQueue(st, store.QueueConfig{
				BotID: botID,
				Log:   logrus.NewEntry(logrus.StandardLogger()),
			})
			defer queue.Close()

			var failed int
			for i, path := range args {
				id := gameID + uint32(i)
				if err := ingestReplay(queue, path, id); err != nil {
					logrus.WithError(err).WithField("replay", path).Error("ingest failed")
					failed++
				}
			}

			queue.Flush()

			if failed > 0 {
				return fmt.Errorf("%d of %d replays failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "dota-stats.db", "SQLite database path, used when no DSN is set")
	cmd.Flags().Uint32Var(&botID, "bot-id", 0, "bot ID stamped onto game rows")
	cmd.Flags().Uint32Var(&gameID, "game-id", 1, "game ID assigned to the first replay")
	return cmd
}

func openStore(ctx context.Context, dsn, sqlitePath string) (store.Store, error) {
	if dsn != "" {
		st, err := store.NewPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logrus.Debug("using postgres store")
		return st, nil
	}

	st, err := store.OpenSQLite(sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	logrus.WithField("path", sqlitePath).Debug("using sqlite store")
	return st, nil
}

func ingestReplay(queue *store.Queue, path string, gameID uint32) error {
	replay, err := w3g.Parse(path)
	if err != nil {
		return fmt.Errorf("parse replay: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"replay": path,
		"map":    replay.MapName,
	})

	result, err := runSession(replay, gameID, queue, log)
	if err != nil {
		return fmt.Errorf("finalize stats: %w", err)
	}

	log.WithFields(logrus.Fields{
		"game_id":  result.GameID,
		"winner":   result.Winner,
		"duration": fmt.Sprintf("%dm%02ds", result.Min, result.Sec),
		"players":  len(result.Players),
	}).Info("replay ingested")
	return nil
}
