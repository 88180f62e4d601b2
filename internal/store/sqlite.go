package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dotagames (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	botid   INTEGER NOT NULL,
	gameid  INTEGER NOT NULL,
	winner  INTEGER NOT NULL,
	min     INTEGER NOT NULL DEFAULT 0,
	sec     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS dotaplayers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	gameid       INTEGER NOT NULL,
	name         TEXT    NOT NULL,
	colour       INTEGER NOT NULL,
	kills        INTEGER NOT NULL,
	deaths       INTEGER NOT NULL,
	creepkills   INTEGER NOT NULL,
	creepdenies  INTEGER NOT NULL,
	assists      INTEGER NOT NULL,
	gold         INTEGER NOT NULL,
	neutralkills INTEGER NOT NULL,
	item1        TEXT    NOT NULL,
	item2        TEXT    NOT NULL,
	item3        TEXT    NOT NULL,
	item4        TEXT    NOT NULL,
	item5        TEXT    NOT NULL,
	item6        TEXT    NOT NULL,
	hero         TEXT    NOT NULL,
	newcolour    INTEGER NOT NULL,
	towerkills   INTEGER NOT NULL,
	raxkills     INTEGER NOT NULL,
	courierkills INTEGER NOT NULL,
	outcome      INTEGER NOT NULL DEFAULT 0,
	level        INTEGER NOT NULL DEFAULT 0,
	apm          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_dotaplayers_gameid ON dotaplayers (gameid);

CREATE TABLE IF NOT EXISTS dotaevents (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	kind     INTEGER NOT NULL,
	gamename TEXT    NOT NULL,
	killer   TEXT    NOT NULL,
	victim   TEXT    NOT NULL,
	kcolour  INTEGER NOT NULL,
	vcolour  INTEGER NOT NULL
);
`

// SQLite is a Store backed by a local SQLite database file. It creates
// the schema on open, so a fresh file is usable immediately.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:"
// for an in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// The driver serializes writes anyway; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) DotAGameAdd(ctx context.Context, row DotAGameRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dotagames (botid, gameid, winner, min, sec)
		 VALUES (?, ?, ?, ?, ?)`,
		row.BotID, row.GameID, row.Winner, row.Min, row.Sec,
	)
	if err != nil {
		return fmt.Errorf("insert game %d: %w", row.GameID, err)
	}
	return nil
}

func (s *SQLite) DotAPlayerAdd(ctx context.Context, row DotAPlayerRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dotaplayers (
		   gameid, name, colour, kills, deaths, creepkills, creepdenies,
		   assists, gold, neutralkills,
		   item1, item2, item3, item4, item5, item6,
		   hero, newcolour, towerkills, raxkills, courierkills,
		   outcome, level, apm
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLite) DotAEventAdd(ctx context.Context, row DotAEventRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dotaevents (kind, gamename, killer, victim, kcolour, vcolour)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.Kind, row.GameName, row.Killer, row.Victim,
		row.KillerColour, row.VictimColour,
	)
	if err != nil {
		return fmt.Errorf("insert event for game %q: %w", row.GameName, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
