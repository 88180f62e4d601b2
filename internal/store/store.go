// Package store persists finalized game statistics. A Store writes
// individual rows; Queue wraps a Store behind a single writer goroutine
// so callers on the game path never block on the database.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned for submissions made after the queue shut down.
var ErrClosed = errors.New("store: queue closed")

// DotAGameRow is one finished game.
type DotAGameRow struct {
	BotID  uint32
	GameID uint32
	Winner uint32
	Min    uint32
	Sec    uint32
}

// DotAPlayerRow is one player's final statistics for a game.
type DotAPlayerRow struct {
	GameID       uint32
	Name         string
	Colour       uint32
	Kills        uint32
	Deaths       uint32
	CreepKills   uint32
	CreepDenies  uint32
	Assists      uint32
	Gold         uint32
	NeutralKills uint32
	Items        [6]string
	Hero         string
	NewColour    uint32
	TowerKills   uint32
	RaxKills     uint32
	CourierKills uint32
	Outcome      uint32
	Level        uint32
	APM          uint32
}

// DotAEventRow is one live game event (a hero kill or a tower falling).
type DotAEventRow struct {
	Kind         uint32
	GameName     string
	Killer       string
	Victim       string
	KillerColour uint32
	VictimColour uint32
}

// Store writes statistics rows to a backing database.
type Store interface {
	DotAGameAdd(ctx context.Context, row DotAGameRow) error
	DotAPlayerAdd(ctx context.Context, row DotAPlayerRow) error
	DotAEventAdd(ctx context.Context, row DotAEventRow) error
	Close() error
}

// Pending is the completion handle for one queued submission.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Ready reports whether the submission has been written (or failed).
// It never blocks.
func (p *Pending) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the submission error. It is nil until Ready reports true.
func (p *Pending) Err() error {
	if p.Ready() {
		return p.err
	}
	return nil
}

func (p *Pending) complete(err error) {
	p.err = err
	close(p.done)
}
