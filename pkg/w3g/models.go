package w3g

import (
	"time"
)

// ReplayHeader contains W3G file header information.
type ReplayHeader struct {
	HeaderSize          uint32 `json:"header_size"`
	CompressedSize      uint32 `json:"compressed_size"`
	HeaderVersion       uint32 `json:"header_version"`
	DecompressedSize    uint32 `json:"decompressed_size"`
	NumCompressedBlocks uint32 `json:"num_compressed_blocks"`

	// SubHeader fields
	GameIdentifier string `json:"game_identifier"`
	Version        uint32 `json:"version"`
	BuildNumber    uint16 `json:"build_number"`
	Flags          uint16 `json:"flags"`
	DurationMs     uint32 `json:"duration_ms"`
	CRC32          uint32 `json:"crc32"`
}

// Duration returns replay duration as time.Duration.
func (h *ReplayHeader) Duration() time.Duration {
	return time.Duration(h.DurationMs) * time.Millisecond
}

// IsMultiplayer returns true if replay is from multiplayer game.
func (h *ReplayHeader) IsMultiplayer() bool {
	return h.Flags&0x8000 != 0
}

// IsReforged returns true if this is a Reforged replay.
func (h *ReplayHeader) IsReforged() bool {
	return h.Version >= ReforgedVersionThreshold || h.GameIdentifier == GameIDReforged
}

// PlayerInfo describes one lobby occupant. Team and Colour come from
// the slot records in the GameStartRecord and are zero until those are
// applied.
type PlayerInfo struct {
	ID         uint8   `json:"id"`
	Name       string  `json:"name"`
	Team       uint8   `json:"team"`
	Colour     uint8   `json:"colour"`
	IsHost     bool    `json:"is_host"`
	IsComputer bool    `json:"is_computer"`
	IsObserver bool    `json:"is_observer"`
	LeftAtMs   *uint32 `json:"left_at_ms,omitempty"`
}

// SlotRecord represents a slot in the game lobby.
type SlotRecord struct {
	PlayerID   uint8
	SlotStatus SlotStatus
	IsComputer bool
	Team       uint8
	Colour     uint8
}

// PlayerAction is one raw action payload attributed to a player. A
// payload may carry several game actions back to back; no framing is
// recovered here.
type PlayerAction struct {
	PlayerID uint8  `json:"player_id"`
	TimeMs   uint32 `json:"time_ms"`
	Payload  []byte `json:"-"`
}

// Leaver records a player leaving the game, in leave order.
type Leaver struct {
	Colour uint8  `json:"colour"`
	Name   string `json:"name"`
	TimeMs uint32 `json:"time_ms"`
}

// Replay is the parsed subset of a replay that statistics extraction
// consumes.
type Replay struct {
	Header   *ReplayHeader  `json:"header"`
	GameName string         `json:"game_name"`
	MapName  string         `json:"map_name"`
	MapPath  string         `json:"map_path"`
	HostName string         `json:"host_name"`
	Players  []*PlayerInfo  `json:"players"`
	Actions  []PlayerAction `json:"-"`
	Leavers  []Leaver       `json:"leavers"`
}

// Player returns the player with the given replay-internal ID.
func (r *Replay) Player(playerID uint8) *PlayerInfo {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// PlayerByColour returns the player occupying a slot colour, or nil.
func (r *Replay) PlayerByColour(colour uint8) *PlayerInfo {
	for _, p := range r.Players {
		if p.Colour == colour && !p.IsObserver {
			return p
		}
	}
	return nil
}
