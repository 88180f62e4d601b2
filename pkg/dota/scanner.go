package dota

import (
	"bytes"
	"encoding/binary"
)

// record is one parsed telemetry triple: a namespace string, a key
// string and a 4 byte value.
type record struct {
	Namespace string
	Key       string
	Value     []byte
}

// Uint32 interprets the value bytes as a little-endian unsigned integer.
func (r record) Uint32() uint32 {
	return binary.LittleEndian.Uint32(r.Value)
}

// ReversedString interprets the value bytes as a byte-reversed string.
// Item and hero identifiers arrive reversed on the wire.
func (r record) ReversedString() string {
	out := make([]byte, len(r.Value))
	for i, b := range r.Value {
		out[len(r.Value)-1-i] = b
	}
	return string(out)
}

// telemetryScanner walks one action blob looking for embedded telemetry
// records. A blob may contain zero, one or several records at arbitrary
// offsets, so the scanner resumes immediately past each consumed record.
//
// When the marker matches but the remaining bytes cannot hold a full
// namespace/key/value triple the scanner advances a single byte and
// keeps looking. This soft failure is deliberate: a false marker match
// must not abort the scan, and making the parse stricter would drop
// legitimately offset telemetry.
type telemetryScanner struct {
	data []byte
	pos  int
}

// next returns the next telemetry record, or ok=false when the blob is
// exhausted.
func (s *telemetryScanner) next() (record, bool) {
	for s.pos+len(telemetryMarker) <= len(s.data) {
		if !bytes.Equal(s.data[s.pos:s.pos+len(telemetryMarker)], telemetryMarker) {
			s.pos++
			continue
		}

		ns, ok := cstringAt(s.data, s.pos+len(telemetryMarker))
		if !ok {
			s.pos++
			continue
		}

		key, ok := cstringAt(s.data, s.pos+len(telemetryMarker)+len(ns)+1)
		if !ok {
			s.pos++
			continue
		}

		valueAt := s.pos + len(telemetryMarker) + len(ns) + len(key) + 2
		if valueAt+4 > len(s.data) {
			s.pos++
			continue
		}

		rec := record{
			Namespace: string(ns),
			Key:       string(key),
			Value:     s.data[valueAt : valueAt+4],
		}
		s.pos = valueAt + 4
		return rec, true
	}
	return record{}, false
}

// cstringAt reads a null terminated byte string starting at offset.
// ok is false when offset is out of range or no terminator exists
// before the end of the buffer.
func cstringAt(data []byte, offset int) ([]byte, bool) {
	if offset >= len(data) {
		return nil, false
	}
	end := bytes.IndexByte(data[offset:], 0)
	if end < 0 {
		return nil, false
	}
	return data[offset : offset+end], true
}
