package w3g

import (
	"encoding/binary"
	"io"
	"os"
)

// Parse reads a replay file.
func Parse(filepath string) (*Replay, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseStream(f)
}

// ParseStream reads a replay from an io.Reader.
func ParseStream(r io.Reader) (*Replay, error) {
	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	data, err := decompressBlocks(r, header)
	if err != nil {
		return nil, err
	}

	return parseGameData(header, data)
}

// parseGameData walks the decompressed game data: lobby records first,
// then the replay block stream.
func parseGameData(header *ReplayHeader, data []byte) (*Replay, error) {
	replay := &Replay{Header: header}
	offset := 0

	// Skip first 4 bytes (unknown, usually 0x00000110)
	if offset+4 <= len(data) {
		offset += 4
	}

	// Host player record
	host, newOffset := parsePlayerRecord(data, offset, true)
	if host != nil {
		replay.Players = append(replay.Players, host)
		replay.HostName = host.Name
		offset = newOffset
	}

	// Game name (null-terminated)
	nameStart := offset
	for offset < len(data) && data[offset] != 0 {
		offset++
	}
	replay.GameName = string(data[nameStart:offset])
	offset++

	// Another null byte (separator)
	if offset < len(data) && data[offset] == 0 {
		offset++
	}

	// Encoded string with game settings and map info
	encodedData, newOffset := decodeEncodedString(data, offset)
	offset = newOffset
	replay.MapPath, replay.MapName = parseEncodedMapInfo(encodedData)

	// Player count, game type, language ID
	if offset+12 <= len(data) {
		offset += 12
	}

	// Additional players
	for offset < len(data) {
		player, newOffset := parsePlayerRecord(data, offset, false)
		if player == nil {
			break
		}
		replay.Players = append(replay.Players, player)
		offset = newOffset
	}

	// Reforged replays carry extra player metadata between the player
	// records and the GameStartRecord (0x19). Skip forward to it.
	if offset < len(data) && !isValidGameStartRecord(data, offset) {
		searchOffset := offset
		for searchOffset < len(data)-4 {
			if data[searchOffset] == BlockGameStart && isValidGameStartRecord(data, searchOffset) {
				break
			}
			searchOffset++
		}
		if searchOffset < len(data) && isValidGameStartRecord(data, searchOffset) {
			offset = searchOffset
		}
	}

	if offset < len(data) && data[offset] == BlockGameStart {
		slots, newOffset := parseGameStartRecord(data, offset, header.Version)
		offset = newOffset
		replay.Players = applySlotInfo(replay.Players, slots, header.Version)
	}

	parseBlocks(replay, data, offset)
	return replay, nil
}

// parseBlocks walks the replay data blocks, collecting action payloads
// and leave records.
func parseBlocks(replay *Replay, data []byte, offset int) {
	currentTimeMs := uint32(0)

	for offset < len(data) {
		blockID := data[offset]
		offset++

		switch blockID {
		case BlockLeaveGame:
			// reason (4) + player_id (1) + result (4) + unknown (4)
			if offset+13 > len(data) {
				return
			}
			offset += 4
			leaverID := data[offset]
			offset++
			offset += 8

			if p := replay.Player(leaverID); p != nil {
				t := currentTimeMs
				p.LeftAtMs = &t
				replay.Leavers = append(replay.Leavers, Leaver{
					Colour: p.Colour,
					Name:   p.Name,
					TimeMs: currentTimeMs,
				})
			}

		case BlockFirstStart, BlockSecondStart, BlockThirdStart:
			// unknown dword (always 0x01)
			offset += 4

		case BlockTimeSlot, BlockTimeSlotOld:
			if offset+4 > len(data) {
				return
			}
			numBytes := int(binary.LittleEndian.Uint16(data[offset:]))
			offset += 2
			timeIncrement := binary.LittleEndian.Uint16(data[offset:])
			offset += 2

			currentTimeMs += uint32(timeIncrement)

			if numBytes > 2 {
				cmdLength := numBytes - 2
				replay.Actions = append(replay.Actions,
					parseCommandData(data, offset, cmdLength, currentTimeMs)...)
				offset += cmdLength
			}

		case BlockChat:
			// sender (1) + length word + length bytes (flags, mode, text)
			if offset+3 > len(data) {
				return
			}
			n := int(binary.LittleEndian.Uint16(data[offset+1:]))
			offset += 3 + n

		case BlockChecksum:
			if offset < len(data) {
				offset += 1 + int(data[offset])
			}

		case BlockForcedEnd:
			// mode (4) + countdown (4)
			offset += 8

		case 0x23:
			// Unknown block type seen in some replays
			if offset < len(data) {
				offset += 1 + int(data[offset])
			}

		default:
			// Unknown block - try to continue
			continue
		}
	}
}

// parseCommandData splits a TimeSlot's CommandData into one opaque
// payload per player entry.
//
// CommandData structure:
//   - 1 byte: Player ID
//   - 1 word: Action block length
//   - n bytes: Action block (one or more game actions, unframed)
func parseCommandData(data []byte, offset, length int, timeMs uint32) []PlayerAction {
	end := offset + length
	if end > len(data) {
		end = len(data)
	}

	var actions []PlayerAction
	for offset+3 <= end {
		playerID := data[offset]
		offset++
		n := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2

		if offset+n > end {
			break
		}
		actions = append(actions, PlayerAction{
			PlayerID: playerID,
			TimeMs:   timeMs,
			Payload:  data[offset : offset+n],
		})
		offset += n
	}
	return actions
}
