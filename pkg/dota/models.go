package dota

import (
	"encoding/json"
	"fmt"
)

// Outcome is a player's result for one game, encoded the way the stats
// tables store it.
type Outcome uint32

const (
	OutcomeDraw Outcome = 0
	OutcomeWin  Outcome = 1
	OutcomeLoss Outcome = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDraw:
		return "Draw"
	case OutcomeWin:
		return "Win"
	case OutcomeLoss:
		return "Loss"
	default:
		return "Unknown"
	}
}

// MarshalJSON implements json.Marshaler for Outcome.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// EventKind tags a live game event row.
type EventKind uint32

const (
	EventKill  EventKind = 0 // a hero died
	EventTower EventKind = 1 // a tower was destroyed
)

func (k EventKind) String() string {
	switch k {
	case EventKill:
		return "kill"
	case EventTower:
		return "tower"
	default:
		return fmt.Sprintf("unknown_%d", uint32(k))
	}
}

// PlayerRecord accumulates one player's statistics for a single game.
// Records are created lazily on the first event referencing their colour
// and live until the owning session is finalized.
type PlayerRecord struct {
	Colour       uint32            `json:"colour"`
	Name         string            `json:"name"`
	Kills        uint32            `json:"kills"`
	Deaths       uint32            `json:"deaths"`
	Assists      uint32            `json:"assists"`
	CreepKills   uint32            `json:"creep_kills"`
	CreepDenies  uint32            `json:"creep_denies"`
	NeutralKills uint32            `json:"neutral_kills"`
	Gold         uint32            `json:"gold"`
	TowerKills   uint32            `json:"tower_kills"`
	RaxKills     uint32            `json:"rax_kills"`
	CourierKills uint32            `json:"courier_kills"`
	Items        [itemSlots]string `json:"items"`
	Hero         string            `json:"hero"`
	Level        uint32            `json:"level"`
	NewColour    uint32            `json:"new_colour"`
	Outcome      Outcome           `json:"outcome"`

	// APM is carried for row compatibility but not computed here.
	APM uint32 `json:"apm"`
}

// GameResult is the finalized outcome of one stats session.
type GameResult struct {
	GameID  uint32          `json:"game_id"`
	Winner  uint32          `json:"winner"`
	Min     uint32          `json:"min"`
	Sec     uint32          `json:"sec"`
	Players []*PlayerRecord `json:"players"`

	// Pending tracks the persistence submissions made for this result.
	// Submissions are fire and forget; poll Ready to observe completion.
	Pending []Pending `json:"-"`
}

// LobbyPlayer is a (colour, name) pair captured when a player left the
// lobby, used to backfill display names at save time.
type LobbyPlayer struct {
	Colour uint32 `json:"colour"`
	Name   string `json:"name"`
}

// Player is a connected player resolved by colour.
type Player interface {
	Name() string
	SetTeam(team uint32)
}

// PlayerResolver looks up a connected player by in-game colour. The
// lookup may fail for players who already disconnected.
type PlayerResolver interface {
	PlayerFromColour(colour uint32) (Player, bool)
}

// Pending is a handle to an asynchronous persistence submission.
// Ready never blocks; Err is meaningful only once Ready reports true.
type Pending interface {
	Ready() bool
	Err() error
}

// Sink consumes persistence requests. Implementations must not block
// the caller; completion is observed through the returned Pending.
type Sink interface {
	DotAGameAdd(gameID, winner, min, sec uint32) Pending
	DotAPlayerAdd(gameID uint32, p *PlayerRecord) Pending
	DotAEventAdd(kind EventKind, gameName, killer, victim string, killerColour, victimColour uint32) Pending
}
