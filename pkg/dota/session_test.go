package dota

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type fakePlayer struct {
	name string
	team uint32
}

func (p *fakePlayer) Name() string        { return p.name }
func (p *fakePlayer) SetTeam(team uint32) { p.team = team }

type fakeRoster map[uint32]*fakePlayer

func (r fakeRoster) PlayerFromColour(colour uint32) (Player, bool) {
	p, ok := r[colour]
	if !ok {
		return nil, false
	}
	return p, true
}

// fullRoster returns ten players named p1..p5, p7..p11.
func fullRoster() fakeRoster {
	r := fakeRoster{}
	for c := uint32(1); c <= 11; c++ {
		if validColour(c) {
			r[c] = &fakePlayer{name: fmt.Sprintf("p%d", c)}
		}
	}
	return r
}

type capturedGame struct {
	gameID, winner, min, sec uint32
}

type capturedEvent struct {
	kind           EventKind
	killer, victim string
	killerColour   uint32
	victimColour   uint32
}

type fakeSink struct {
	games   []capturedGame
	players []*PlayerRecord
	events  []capturedEvent
}

func (f *fakeSink) DotAGameAdd(gameID, winner, min, sec uint32) Pending {
	f.games = append(f.games, capturedGame{gameID, winner, min, sec})
	return readyPending{}
}

func (f *fakeSink) DotAPlayerAdd(gameID uint32, p *PlayerRecord) Pending {
	f.players = append(f.players, p)
	return readyPending{}
}

func (f *fakeSink) DotAEventAdd(kind EventKind, gameName, killer, victim string, kc, vc uint32) Pending {
	f.events = append(f.events, capturedEvent{kind, killer, victim, kc, vc})
	return readyPending{}
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.Log == nil {
		cfg.Log = testLog()
	}
	return NewSession(cfg)
}

func TestCreepKillsAllValidColours(t *testing.T) {
	for c := uint32(1); c <= MaxColour; c++ {
		s := newTestSession(t, Config{})
		s.ProcessAction(telemetry("Data", fmt.Sprintf("CSK%d", c), 42))

		if validColour(c) {
			p := s.Player(c)
			if p == nil || p.CreepKills != 42 {
				t.Fatalf("colour %d: got %+v, want creep kills 42", c, p)
			}
		} else if s.Player(c) != nil {
			t.Fatalf("colour %d: record created for invalid colour", c)
		}
	}
}

func TestOutOfRangeColourIgnored(t *testing.T) {
	s := newTestSession(t, Config{})
	s.ProcessAction(telemetry("Data", "CSK12", 5))
	s.ProcessAction(telemetry("Data", "NK0", 5))
	s.ProcessAction(telemetry("12", "6", 500))

	for _, p := range s.players {
		if p != nil {
			t.Fatalf("unexpected record %+v", p)
		}
	}
}

func TestItemAndHeroByteReversal(t *testing.T) {
	s := newTestSession(t, Config{})
	s.ProcessAction(telemetryRaw("1", "8_0", []byte{'t', 't', 'a', 'r'}))
	s.ProcessAction(telemetryRaw("1", "9", []byte{'v', 'e', 'd', 'H'}))

	p := s.Player(1)
	if p == nil {
		t.Fatal("no record for colour 1")
	}
	if p.Items[0] != "ratt" {
		t.Fatalf("item slot 0 = %q, want %q", p.Items[0], "ratt")
	}
	if p.Hero != "Hdev" {
		t.Fatalf("hero = %q, want %q", p.Hero, "Hdev")
	}
}

func TestAllItemSlots(t *testing.T) {
	s := newTestSession(t, Config{})
	for slot := 0; slot < itemSlots; slot++ {
		v := []byte{byte('0' + slot), 'm', 't', 'I'}
		s.ProcessAction(telemetryRaw("7", fmt.Sprintf("8_%d", slot), v))
	}
	p := s.Player(7)
	for slot := 0; slot < itemSlots; slot++ {
		want := fmt.Sprintf("Itm%d", slot)
		if p.Items[slot] != want {
			t.Fatalf("item slot %d = %q, want %q", slot, p.Items[slot], want)
		}
	}
}

func TestHeroKillAttribution(t *testing.T) {
	roster := fullRoster()
	sink := &fakeSink{}
	s := newTestSession(t, Config{Resolver: roster, Sink: sink})

	// colour 8 killed colour 3
	s.ProcessAction(telemetry("Data", "Hero3", 8))

	if got := s.Player(8).Kills; got != 1 {
		t.Fatalf("killer kills = %d, want 1", got)
	}
	if got := s.Player(3).Deaths; got != 1 {
		t.Fatalf("victim deaths = %d, want 1", got)
	}
	if len(sink.events) != 1 {
		t.Fatalf("got %d live events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.kind != EventKill || ev.killer != "p8" || ev.victim != "p3" || ev.killerColour != 8 || ev.victimColour != 3 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSelfKillCountsDeathOnly(t *testing.T) {
	s := newTestSession(t, Config{Resolver: fullRoster()})
	s.ProcessAction(telemetry("Data", "Hero3", 3))

	p := s.Player(3)
	if p.Kills != 0 || p.Deaths != 1 {
		t.Fatalf("kills/deaths = %d/%d, want 0/1", p.Kills, p.Deaths)
	}
}

func TestLeaverKillNotAttributed(t *testing.T) {
	roster := fakeRoster{2: &fakePlayer{name: "p2"}}
	s := newTestSession(t, Config{Resolver: roster})

	// victim colour 9 already left
	s.ProcessAction(telemetry("Data", "Hero9", 2))

	if s.Player(2) != nil || s.Player(9) != nil {
		t.Fatal("leaver kill must not create records")
	}
}

func TestTeamKillCountsVictimDeath(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, Config{Resolver: fullRoster(), Sink: sink})

	// the Sentinel (colour 0) killed colour 5
	s.ProcessAction(telemetry("Data", "Hero5", 0))

	if got := s.Player(5).Deaths; got != 1 {
		t.Fatalf("victim deaths = %d, want 1", got)
	}
	if len(sink.events) != 0 {
		t.Fatalf("team kills must not emit live events, got %d", len(sink.events))
	}
}

// The Level handler takes the level from the key suffix and the subject
// colour from the value, unlike most other handlers.
func TestLevelFromKeySuffix(t *testing.T) {
	s := newTestSession(t, Config{Resolver: fullRoster()})
	s.ProcessAction(telemetry("Data", "Level6", 4))

	if got := s.Player(4).Level; got != 6 {
		t.Fatalf("level = %d, want 6", got)
	}
}

func TestAssistFromKeySuffix(t *testing.T) {
	s := newTestSession(t, Config{Resolver: fullRoster()})
	s.ProcessAction(telemetry("Data", "Assist7", 3))

	if got := s.Player(7).Assists; got != 1 {
		t.Fatalf("assists = %d, want 1", got)
	}
	if s.Player(3) != nil {
		t.Fatal("victim of an assist must not gain a record")
	}
}

func TestTowerAndRaxKills(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, Config{Resolver: fullRoster(), Sink: sink})

	s.ProcessAction(telemetry("Data", "Tower110", 8)) // level 1 Scourge tower, top
	s.ProcessAction(telemetry("Data", "Rax021", 8))   // ranged Sentinel rax, bottom

	p := s.Player(8)
	if p.TowerKills != 1 || p.RaxKills != 1 {
		t.Fatalf("tower/rax = %d/%d, want 1/1", p.TowerKills, p.RaxKills)
	}
	if len(sink.events) != 1 {
		t.Fatalf("got %d live events, want 1 (tower only)", len(sink.events))
	}
	ev := sink.events[0]
	if ev.kind != EventTower || ev.killer != "p8" || ev.victim != "1,Scourge,top" || ev.victimColour != 0 {
		t.Fatalf("unexpected tower event %+v", ev)
	}
}

func TestCourierKills(t *testing.T) {
	s := newTestSession(t, Config{Resolver: fullRoster()})
	s.ProcessAction(telemetry("Data", "Courier4", 9))

	if got := s.Player(9).CourierKills; got != 1 {
		t.Fatalf("courier kills = %d, want 1", got)
	}
}

func TestSnapshotFields(t *testing.T) {
	roster := fullRoster()
	s := newTestSession(t, Config{Resolver: roster})

	s.ProcessAction(telemetry("5", "3", 120))
	s.ProcessAction(telemetry("5", "4", 15))
	s.ProcessAction(telemetry("5", "6", 2750))
	s.ProcessAction(telemetry("5", "7", 33))
	// kills/deaths/assists snapshots are covered by live events already
	s.ProcessAction(telemetry("5", "1", 99))
	s.ProcessAction(telemetry("5", "2", 99))
	s.ProcessAction(telemetry("5", "5", 99))

	p := s.Player(5)
	if p.CreepKills != 120 || p.CreepDenies != 15 || p.Gold != 2750 || p.NeutralKills != 33 {
		t.Fatalf("snapshot fields wrong: %+v", p)
	}
	if p.Kills != 0 || p.Deaths != 0 || p.Assists != 0 {
		t.Fatalf("snapshot keys 1/2/5 must be ignored: %+v", p)
	}
	if roster[5].team != 1 {
		t.Fatalf("team = %d, want 1", roster[5].team)
	}
}

func TestNewColourOffset(t *testing.T) {
	cases := []struct {
		reported uint32
		want     uint32
	}{
		{1, 1}, {5, 5}, {6, 7}, {10, 11},
	}
	for _, tc := range cases {
		s := newTestSession(t, Config{})
		s.ProcessAction(telemetry("3", "id", tc.reported))
		if got := s.Player(3).NewColour; got != tc.want {
			t.Fatalf("id %d: new colour = %d, want %d", tc.reported, got, tc.want)
		}
	}
}

func TestWinnerEdgeSignal(t *testing.T) {
	s := newTestSession(t, Config{})

	if s.ProcessAction(telemetry("Data", "CSK1", 1)) {
		t.Fatal("creep kills must not signal game over")
	}
	if !s.ProcessAction(telemetry("Global", "Winner", 2)) {
		t.Fatal("first winner report must signal game over")
	}
	if s.ProcessAction(telemetry("Global", "Winner", 2)) {
		t.Fatal("repeated winner reports must not re-signal")
	}
	if !s.GameOver() {
		t.Fatal("GameOver() must stay true")
	}
	if s.Winner() != 2 {
		t.Fatalf("winner = %d, want 2", s.Winner())
	}
}

func TestOutcomeResolution(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, Config{Resolver: fullRoster(), Sink: sink})

	s.ProcessAction(telemetry("Global", "Winner", 1))
	s.ProcessAction(telemetry("Data", "Hero3", 8)) // colour 3 died, colour 8 killed

	result, err := s.Finalize(11, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	outcomes := map[uint32]Outcome{}
	for _, p := range result.Players {
		outcomes[p.Colour] = p.Outcome
	}
	if outcomes[3] != OutcomeWin {
		t.Fatalf("colour 3 outcome = %v, want Win", outcomes[3])
	}
	if outcomes[8] != OutcomeLoss {
		t.Fatalf("colour 8 outcome = %v, want Loss", outcomes[8])
	}
}

func TestDrawWhenNoWinner(t *testing.T) {
	s := newTestSession(t, Config{Resolver: fullRoster()})
	s.ProcessAction(telemetry("Data", "CSK2", 7))

	result, err := s.Finalize(1, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Players[0].Outcome != OutcomeDraw {
		t.Fatalf("outcome = %v, want Draw", result.Players[0].Outcome)
	}
}

func TestDuplicateColourAbortsSave(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, Config{Sink: sink})
	s.players[4] = &PlayerRecord{Colour: 4}
	s.players[5] = &PlayerRecord{Colour: 4}

	_, err := s.Finalize(9, nil)
	if !errors.Is(err, ErrDuplicateColour) {
		t.Fatalf("err = %v, want ErrDuplicateColour", err)
	}
	if len(sink.games) != 0 || len(sink.players) != 0 {
		t.Fatalf("duplicate colour must emit zero rows, got %d/%d", len(sink.games), len(sink.players))
	}
}

func TestInvalidColourDiscardedAtSave(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSession(t, Config{Sink: sink})
	s.players[2] = &PlayerRecord{Colour: 2}
	s.players[6] = &PlayerRecord{Colour: 6}

	result, err := s.Finalize(9, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(result.Players) != 1 || result.Players[0].Colour != 2 {
		t.Fatalf("survivors = %+v, want only colour 2", result.Players)
	}
}

func TestDerivedDuration(t *testing.T) {
	clock := int64(5000)
	s := newTestSession(t, Config{Now: func() int64 { return clock }})

	s.ProcessAction(telemetry("Data", "GameStart", 0))
	clock += 125
	s.ProcessAction(telemetry("Global", "Winner", 1))

	result, err := s.Finalize(1, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Min != 2 || result.Sec != 5 {
		t.Fatalf("duration = %dm%ds, want 2m5s", result.Min, result.Sec)
	}
}

func TestExplicitDurationWins(t *testing.T) {
	clock := int64(5000)
	s := newTestSession(t, Config{Now: func() int64 { return clock }})

	s.ProcessAction(telemetry("Data", "GameStart", 0))
	clock += 999
	s.ProcessAction(telemetry("Global", "m", 35))
	s.ProcessAction(telemetry("Global", "s", 12))

	result, err := s.Finalize(1, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Min != 35 || result.Sec != 12 {
		t.Fatalf("duration = %dm%ds, want 35m12s", result.Min, result.Sec)
	}
}

func TestNegativeClockDeltaClamped(t *testing.T) {
	clock := int64(5000)
	s := newTestSession(t, Config{Now: func() int64 { return clock }})

	s.ProcessAction(telemetry("Data", "GameStart", 0))
	clock -= 300
	s.ProcessAction(telemetry("Global", "Winner", 1))

	result, err := s.Finalize(1, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Min != 0 || result.Sec != 0 {
		t.Fatalf("duration = %dm%ds, want clamp to 0m0s", result.Min, result.Sec)
	}
}

func TestNameBackfillFromLeavers(t *testing.T) {
	s := newTestSession(t, Config{})
	s.ProcessAction(telemetry("4", "6", 100))

	result, err := s.Finalize(1, []LobbyPlayer{{Colour: 9, Name: "other"}, {Colour: 4, Name: "lefty"}})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Players[0].Name != "lefty" {
		t.Fatalf("name = %q, want %q", result.Players[0].Name, "lefty")
	}
}

func TestFullGameScenario(t *testing.T) {
	roster := fullRoster()
	sink := &fakeSink{}
	s := newTestSession(t, Config{GameName: "dota #42", Resolver: roster, Sink: sink})

	var blobs [][]byte
	blobs = append(blobs, telemetry("Data", "GameStart", 0))
	// id reconciliation for every player
	id := uint32(1)
	for c := uint32(1); c <= MaxColour; c++ {
		if !validColour(c) {
			continue
		}
		blobs = append(blobs, telemetry(fmt.Sprintf("%d", c), "id", id))
		id++
	}
	blobs = append(blobs,
		telemetry("Data", "Hero3", 8),
		telemetry("Data", "Tower011", 8),
		telemetry("Global", "Winner", 2),
		telemetry("Global", "m", 35),
		telemetry("Global", "s", 12),
	)

	gameOver := false
	for _, blob := range blobs {
		if s.ProcessAction(blob) {
			gameOver = true
		}
	}
	if !gameOver {
		t.Fatal("winner blob must signal game over")
	}

	result, err := s.Finalize(42, nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(sink.games) != 1 {
		t.Fatalf("got %d game rows, want 1", len(sink.games))
	}
	game := sink.games[0]
	if game != (capturedGame{42, 2, 35, 12}) {
		t.Fatalf("game row = %+v", game)
	}
	if len(sink.players) != 10 {
		t.Fatalf("got %d player rows, want 10", len(sink.players))
	}
	for _, p := range result.Players {
		want := OutcomeLoss
		if p.Colour > ColourScourge {
			want = OutcomeWin
		}
		if p.Outcome != want {
			t.Fatalf("colour %d outcome = %v, want %v", p.Colour, p.Outcome, want)
		}
	}
	if len(sink.events) != 2 {
		t.Fatalf("got %d live events, want kill+tower", len(sink.events))
	}
	for _, pend := range result.Pending {
		if !pend.Ready() || pend.Err() != nil {
			t.Fatalf("pending not ready: %+v", pend)
		}
	}
	if roster[3].team != 1 || roster[8].team != 2 {
		t.Fatalf("teams = %d/%d, want 1/2", roster[3].team, roster[8].team)
	}
}
