// Package dota extracts DotA game statistics from the real time replay
// data that the map embeds in Warcraft III player actions.
package dota

// telemetryMarker identifies embedded replay data inside an action blob:
// 0x6b followed by the null terminated string "dr.x". Actions are not
// length prefixed, so the marker is a heuristic signature rather than a
// frame boundary.
var telemetryMarker = []byte{0x6b, 0x64, 0x72, 0x2e, 0x78, 0x00}

// Namespaces of the first string following the marker.
const (
	NamespaceData   = "Data"   // live events during the game
	NamespaceGlobal = "Global" // end of game fields
	// anything else is a short numeric string naming a player slot
)

// Team colours. Players occupy 1-5 (Sentinel) and 7-11 (Scourge);
// 0 and 6 name the team itself in kill attribution events.
const (
	ColourSentinel uint32 = 0
	ColourScourge  uint32 = 6
	MaxColour      uint32 = 11
)

// Winner values reported by the "Global"/"Winner" event.
const (
	WinnerNone     uint32 = 0
	WinnerSentinel uint32 = 1
	WinnerScourge  uint32 = 2
)

// numSlots is the size of the per-game player table, indexed by colour.
const numSlots = 12

// itemSlots is the number of inventory slots reported per player.
const itemSlots = 6

// validColour reports whether c identifies a player rather than a team
// or garbage.
func validColour(c uint32) bool {
	return (c >= 1 && c <= 5) || (c >= 7 && c <= 11)
}

// colourTeam returns 1 for Sentinel colours and 2 for Scourge colours.
// Callers must check validColour first.
func colourTeam(c uint32) uint32 {
	if c <= 5 {
		return 1
	}
	return 2
}

// teamName names the side identified by colour 0 or 6.
func teamName(c uint32) string {
	switch c {
	case ColourSentinel:
		return "Sentinel"
	case ColourScourge:
		return "Scourge"
	default:
		return "unknown"
	}
}

// allianceName decodes the alliance digit of Tower/Rax key suffixes.
func allianceName(b byte) string {
	switch b {
	case '0':
		return "Sentinel"
	case '1':
		return "Scourge"
	default:
		return "unknown"
	}
}

// sideName decodes the lane digit of Tower/Rax key suffixes.
func sideName(b byte) string {
	switch b {
	case '0':
		return "top"
	case '1':
		return "mid"
	case '2':
		return "bottom"
	default:
		return "unknown"
	}
}

// raxTypeName decodes the barracks type digit of Rax key suffixes.
func raxTypeName(b byte) string {
	switch b {
	case '0':
		return "melee"
	case '1':
		return "ranged"
	default:
		return "unknown"
	}
}
