package w3g

// decodeEncodedString decodes the encoded string format used in W3G.
//
// The encoding uses a control-byte scheme where every even byte-value
// was incremented by 1 (so all encoded bytes are odd). Control bytes
// use bits 1-7 to indicate whether the next 7 bytes are encoded
// (bit=0: subtract 1) or literal (bit=1).
func decodeEncodedString(data []byte, offset int) ([]byte, int) {
	result := make([]byte, 0, 256)
	pos := offset

	for pos < len(data) {
		control := data[pos]
		pos++

		if control == 0 {
			// End of encoded string
			break
		}

		for bit := 0; bit < 7; bit++ {
			if pos >= len(data) {
				break
			}

			b := data[pos]
			pos++

			if b == 0 {
				result = append(result, 0)
				return result, pos
			}

			if (control & (1 << (bit + 1))) == 0 {
				// Encoded: subtract 1
				result = append(result, b-1)
			} else {
				// Literal
				result = append(result, b)
			}
		}
	}

	return result, pos
}

// parseEncodedMapInfo extracts the map path and name from the decoded
// settings string. The first 13 bytes are game settings (speed,
// visibility, team locks); stats extraction skips them and reads the
// null-terminated map path that follows.
func parseEncodedMapInfo(encodedData []byte) (mapPath, mapName string) {
	if len(encodedData) < 13 {
		return "", ""
	}

	offset := 13
	if offset < len(encodedData) && encodedData[offset] == 0 {
		offset++
	}

	pathStart := offset
	for offset < len(encodedData) && encodedData[offset] != 0 {
		offset++
	}
	if offset > pathStart {
		mapPath = string(encodedData[pathStart:offset])
		mapName = extractMapName(mapPath)
	}

	return mapPath, mapName
}

// extractMapName extracts the map name from a map path.
func extractMapName(mapPath string) string {
	mapName := mapPath

	for i := len(mapPath) - 1; i >= 0; i-- {
		if mapPath[i] == '/' || mapPath[i] == '\\' {
			mapName = mapPath[i+1:]
			break
		}
	}

	if len(mapName) > 4 {
		ext := mapName[len(mapName)-4:]
		if ext == ".w3x" || ext == ".w3m" || ext == ".W3X" || ext == ".W3M" {
			mapName = mapName[:len(mapName)-4]
		}
	}

	return mapName
}
