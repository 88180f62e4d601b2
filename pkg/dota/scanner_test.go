package dota

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// telemetryRaw builds a wire-format telemetry record with raw value bytes.
func telemetryRaw(ns, key string, value []byte) []byte {
	blob := append([]byte{}, telemetryMarker...)
	blob = append(blob, ns...)
	blob = append(blob, 0)
	blob = append(blob, key...)
	blob = append(blob, 0)
	blob = append(blob, value...)
	return blob
}

// telemetry builds a wire-format telemetry record with an integer value.
func telemetry(ns, key string, value uint32) []byte {
	v := make([]byte, 4)
	binary.LittleEndian.PutUint32(v, value)
	return telemetryRaw(ns, key, v)
}

func TestScannerSingleRecord(t *testing.T) {
	sc := telemetryScanner{data: telemetry("Data", "CSK4", 17)}

	rec, ok := sc.next()
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Namespace != "Data" || rec.Key != "CSK4" || rec.Uint32() != 17 {
		t.Fatalf("got %q/%q/%d, want Data/CSK4/17", rec.Namespace, rec.Key, rec.Uint32())
	}
	if _, ok := sc.next(); ok {
		t.Fatal("expected exhaustion after one record")
	}
}

func TestScannerRecordAtOffset(t *testing.T) {
	blob := append([]byte{0x10, 0x42, 0x6b, 0x00}, telemetry("Global", "Winner", 2)...)
	sc := telemetryScanner{data: blob}

	rec, ok := sc.next()
	if !ok {
		t.Fatal("expected a record after leading garbage")
	}
	if rec.Namespace != "Global" || rec.Key != "Winner" || rec.Uint32() != 2 {
		t.Fatalf("got %q/%q/%d", rec.Namespace, rec.Key, rec.Uint32())
	}
}

func TestScannerBackToBackRecords(t *testing.T) {
	blob := append(telemetry("Data", "CSK1", 10), telemetry("Data", "CSD1", 4)...)
	sc := telemetryScanner{data: blob}

	var keys []string
	for rec, ok := sc.next(); ok; rec, ok = sc.next() {
		keys = append(keys, rec.Key)
	}
	if len(keys) != 2 || keys[0] != "CSK1" || keys[1] != "CSD1" {
		t.Fatalf("got keys %v, want [CSK1 CSD1]", keys)
	}
}

func TestScannerTruncatedAfterMarker(t *testing.T) {
	cases := [][]byte{
		telemetryMarker,
		append(append([]byte{}, telemetryMarker...), 'D'),
		append(append([]byte{}, telemetryMarker...), 'D', 0),
		// namespace and key but short value
		append(append([]byte{}, telemetryMarker...), 'D', 0, 'k', 0, 1, 2),
		// namespace never terminated
		append(append([]byte{}, telemetryMarker...), 'D', 'a', 't', 'a'),
	}
	for _, blob := range cases {
		sc := telemetryScanner{data: blob}
		if rec, ok := sc.next(); ok {
			t.Fatalf("blob %v: unexpected record %q/%q", blob, rec.Namespace, rec.Key)
		}
	}
}

// A false marker with enough bytes behind it parses greedily: the
// stray namespace runs into the next record's marker and the whole
// thing comes back as one garbage triple. That matches the map's
// behaviour in game; downstream colour validation drops the garbage.
func TestScannerFalseMarkerParsesGreedily(t *testing.T) {
	partial := append(append([]byte{}, telemetryMarker...), 'D')
	blob := append(partial, telemetry("Data", "NK5", 3)...)
	sc := telemetryScanner{data: blob}

	rec, ok := sc.next()
	if !ok {
		t.Fatal("expected a record")
	}
	// the real record's marker terminates the stray namespace and its
	// "Data" namespace is consumed as the key
	if rec.Namespace != "Dkdr.x" || rec.Key != "Data" {
		t.Fatalf("got %q/%q, want Dkdr.x/Data", rec.Namespace, rec.Key)
	}
	if rec.Uint32() != binary.LittleEndian.Uint32([]byte{'N', 'K', '5', 0}) {
		t.Fatalf("value = %d", rec.Uint32())
	}

	// the swallowed record must not come back
	if rec, ok := sc.next(); ok {
		t.Fatalf("unexpected second record %q/%q", rec.Namespace, rec.Key)
	}
}

func TestReversedString(t *testing.T) {
	rec := record{Value: []byte{'t', 't', 'a', 'r'}}
	if got := rec.ReversedString(); got != "ratt" {
		t.Fatalf("ReversedString() = %q, want %q", got, "ratt")
	}
}

func TestCStringAt(t *testing.T) {
	data := []byte{'a', 'b', 0, 'c'}
	s, ok := cstringAt(data, 0)
	if !ok || !bytes.Equal(s, []byte("ab")) {
		t.Fatalf("cstringAt(0) = %q, %v", s, ok)
	}
	if _, ok := cstringAt(data, 3); ok {
		t.Fatal("expected failure on unterminated string")
	}
	if _, ok := cstringAt(data, 10); ok {
		t.Fatal("expected failure past end of buffer")
	}
}
