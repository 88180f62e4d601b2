// Package w3g reads Warcraft III replay (.w3g) files far enough to
// recover what post-game statistics need: the lobby roster with slot
// colours, the order in which players left, and the raw per-player
// action payloads carried by TimeSlot blocks. Action payloads are kept
// opaque; interpreting them is the consumer's job.
package w3g

// MagicString is the magic bytes identifying W3G replay files (28 bytes)
var MagicString = []byte("Warcraft III recorded game\x1a\x00")

// Header sizes
const (
	BaseHeaderSize  = 0x30 // 48 bytes for base header
	SubHeaderV0Size = 0x10 // 16 bytes
	SubHeaderV1Size = 0x14 // 20 bytes
)

// Game identifiers (little-endian representation)
const (
	GameIDClassic  = "WAR3" // Reign of Chaos / Classic
	GameIDTFT      = "W3XP" // The Frozen Throne
	GameIDReforged = "PX3W" // Alternative Reforged identifier
)

// Flags
const (
	FlagSinglePlayer = 0x0000
	FlagMultiplayer  = 0x8000
)

// Observer team IDs
const (
	ObserverTeamClassic  = 12
	ObserverTeamReforged = 24
)

// Version threshold for Reforged
const ReforgedVersionThreshold = 29

// Block IDs
const (
	BlockLeaveGame   = 0x17
	BlockGameStart   = 0x19
	BlockFirstStart  = 0x1A
	BlockSecondStart = 0x1B
	BlockThirdStart  = 0x1C
	BlockTimeSlotOld = 0x1E
	BlockTimeSlot    = 0x1F
	BlockChat        = 0x20
	BlockChecksum    = 0x22
	BlockForcedEnd   = 0x2F
)

// Record IDs
const (
	RecordHost             = 0x00
	RecordAdditionalPlayer = 0x16
)

// SlotStatus represents slot status in game lobby.
type SlotStatus uint8

const (
	SlotEmpty  SlotStatus = 0x00
	SlotClosed SlotStatus = 0x01
	SlotUsed   SlotStatus = 0x02
)

func (s SlotStatus) String() string {
	switch s {
	case SlotEmpty:
		return "Empty"
	case SlotClosed:
		return "Closed"
	case SlotUsed:
		return "Used"
	default:
		return "Unknown"
	}
}
