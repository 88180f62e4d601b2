package w3g

import (
	"encoding/binary"
	"fmt"
)

// parsePlayerRecord parses a player record from decompressed data.
//
// Player record structure:
//   - 1 byte: Record ID (0x00 for host, 0x16 for additional)
//   - 1 byte: Player ID
//   - n bytes: Player name (null-terminated)
//   - 1 byte: Additional data size (0x01 for custom, 0x08 for ladder)
//   - Additional data (1 or 8 bytes)
func parsePlayerRecord(data []byte, offset int, isHost bool) (*PlayerInfo, int) {
	if offset >= len(data) {
		return nil, offset
	}

	recordID := data[offset]
	offset++

	expectedID := uint8(RecordAdditionalPlayer)
	if isHost {
		expectedID = RecordHost
	}
	if recordID != expectedID {
		// Not a player record, backtrack
		return nil, offset - 1
	}

	if offset >= len(data) {
		return nil, offset
	}

	playerID := data[offset]
	offset++

	nameStart := offset
	for offset < len(data) && data[offset] != 0 {
		offset++
	}
	name := string(data[nameStart:offset])
	offset++ // Skip null terminator

	if offset >= len(data) {
		return &PlayerInfo{ID: playerID, Name: name, IsHost: isHost}, offset
	}

	// Additional data size; contents (runtime, race flags) are of no
	// use to stats extraction and are skipped.
	extraSize := data[offset]
	offset++
	offset += int(extraSize)

	return &PlayerInfo{ID: playerID, Name: name, IsHost: isHost}, offset
}

// parseSlotRecord parses a slot record from GameStartRecord.
//
// Slot record structure (varies by version):
//   - 1 byte: Player ID (0x00 for computer)
//   - 1 byte: Download percent
//   - 1 byte: Slot status
//   - 1 byte: Computer flag
//   - 1 byte: Team number
//   - 1 byte: Colour
//   - 1 byte: Race flags
//   - 1 byte: AI strength (v1.03+)
//   - 1 byte: Handicap (v1.07+)
func parseSlotRecord(data []byte, offset int, version uint32) (*SlotRecord, int) {
	slotSize := 9
	if version < 3 {
		slotSize = 7
	} else if version < 7 {
		slotSize = 8
	}

	if offset+slotSize > len(data) {
		return nil, offset
	}

	slot := &SlotRecord{
		PlayerID:   data[offset],
		SlotStatus: SlotStatus(data[offset+2]),
		IsComputer: data[offset+3] == 0x01,
		Team:       data[offset+4],
		Colour:     data[offset+5],
	}

	return slot, offset + slotSize
}

// parseGameStartRecord parses the GameStartRecord.
//
// Structure:
//   - 1 byte: Record ID (0x19)
//   - 1 word: Number of following data bytes
//   - 1 byte: Number of slot records
//   - n slot records
//   - 1 dword: Random seed
//   - 1 byte: Select mode
//   - 1 byte: Start spot count
func parseGameStartRecord(data []byte, offset int, version uint32) ([]*SlotRecord, int) {
	if offset >= len(data) || data[offset] != BlockGameStart {
		return nil, offset
	}
	offset++

	if offset+2 > len(data) {
		return nil, offset
	}
	offset += 2 // number of following bytes

	if offset >= len(data) {
		return nil, offset
	}
	numSlots := data[offset]
	offset++

	slots := make([]*SlotRecord, 0, numSlots)
	for i := uint8(0); i < numSlots; i++ {
		slot, newOffset := parseSlotRecord(data, offset, version)
		if slot != nil {
			slots = append(slots, slot)
		}
		offset = newOffset
	}

	// Random seed, select mode, start spot count
	offset += 4
	if offset < len(data) {
		offset++
	}
	if offset < len(data) {
		offset++
	}

	return slots, offset
}

// applySlotInfo stamps team, colour and observer status onto the player
// roster and appends computer players. Returns the updated roster.
func applySlotInfo(players []*PlayerInfo, slots []*SlotRecord, version uint32) []*PlayerInfo {
	playerMap := make(map[uint8]*PlayerInfo)
	for _, p := range players {
		playerMap[p.ID] = p
	}

	observerTeam := uint8(ObserverTeamClassic)
	if version >= ReforgedVersionThreshold {
		observerTeam = uint8(ObserverTeamReforged)
	}

	for _, slot := range slots {
		if slot.SlotStatus != SlotUsed {
			continue
		}

		if slot.IsComputer {
			players = append(players, &PlayerInfo{
				ID:         slot.PlayerID,
				Name:       fmt.Sprintf("Computer %d", slot.PlayerID),
				IsComputer: true,
				Team:       slot.Team,
				Colour:     slot.Colour,
			})
		} else if player, ok := playerMap[slot.PlayerID]; ok {
			player.Team = slot.Team
			player.Colour = slot.Colour
			if player.Team == observerTeam {
				player.IsObserver = true
			}
		}
	}

	return players
}

// isValidGameStartRecord checks if offset points to a valid GameStartRecord.
func isValidGameStartRecord(data []byte, offset int) bool {
	if offset+4 > len(data) || data[offset] != BlockGameStart {
		return false
	}
	numBytes := binary.LittleEndian.Uint16(data[offset+1:])
	if numBytes < 10 || numBytes > 500 { // Reasonable range
		return false
	}
	numSlots := data[offset+3]
	return numSlots >= 2 && numSlots <= 24
}
