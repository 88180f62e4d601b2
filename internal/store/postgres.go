package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store backed by a PostgreSQL connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database given by dsn and verifies the
// connection with a ping.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) DotAGameAdd(ctx context.Context, row DotAGameRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dotagames (botid, gameid, winner, min, sec)
		 VALUES ($1, $2, $3, $4, $5)`,
		row.BotID, row.GameID, row.Winner, row.Min, row.Sec,
	)
	if err != nil {
		return fmt.Errorf("insert game %d: %w", row.GameID, err)
	}
	return nil
}

func (s *Postgres) DotAPlayerAdd(ctx context.Context, row DotAPlayerRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dotaplayers (
		   gameid, name, colour, kills, deaths, creepkills, creepdenies,
		   assists, gold, neutralkills,
		   item1, item2, item3, item4, item5, item6,
		   hero, newcolour, towerkills, raxkills, courierkills,
		   outcome, level, apm
		 ) VALUES (
		   $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		   $11, $12, $13, $14, $15, $16,
		   $17, $18, $19, $20, $21, $22, $23, $24
		 )`,
		row.GameID, row.Name, row.Colour, row.Kills, row.Deaths,
		row.CreepKills, row.CreepDenies, row.Assists, row.Gold,
		row.NeutralKills,
		row.Items[0], row.Items[1], row.Items[2],
		row.Items[3], row.Items[4], row.Items[5],
		row.Hero, row.NewColour, row.TowerKills, row.RaxKills,
		row.CourierKills, row.Outcome, row.Level, row.APM,
	)
	if err != nil {
		return fmt.Errorf("insert player %q for game %d: %w", row.Name, row.GameID, err)
	}
	return nil
}

func (s *Postgres) DotAEventAdd(ctx context.Context, row DotAEventRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dotaevents (kind, gamename, killer, victim, kcolour, vcolour)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.Kind, row.GameName, row.Killer, row.Victim,
		row.KillerColour, row.VictimColour,
	)
	if err != nil {
		return fmt.Errorf("insert event for game %q: %w", row.GameName, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
