package dota

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrDuplicateColour is returned by Finalize when two accumulated
// records claim the same colour. Duplicate colours mean the map sent
// garbage in an "id" reconciliation, so the whole save is rejected
// rather than auto-resolved.
var ErrDuplicateColour = errors.New("duplicate player colour in stats data")

// Config carries the collaborators of a stats session. Every field is
// optional; missing collaborators degrade to no-ops.
type Config struct {
	// GameName labels log lines and live event rows.
	GameName string

	// Resolver maps in-game colours to connected players. Lookups may
	// fail for players who already left.
	Resolver PlayerResolver

	// Sink receives live event rows and, at finalize time, the game and
	// player stat rows.
	Sink Sink

	// Now returns wall clock seconds, used only to derive the game
	// duration when the map never reports it explicitly.
	Now func() int64

	// Log receives the live kill feed and save diagnostics.
	Log *logrus.Entry
}

// Session accumulates DotA statistics for a single hosted game. It is
// driven synchronously from the game's update loop: one ProcessAction
// call per incoming player action, then Finalize once the game ends.
// A session is not safe for concurrent use; each game owns its own.
type Session struct {
	gameName string
	resolver PlayerResolver
	sink     Sink
	now      func() int64
	log      *logrus.Entry

	// players is indexed by colour. Slots are nil until the first event
	// referencing that colour.
	players [numSlots]*PlayerRecord

	winner    uint32
	min       uint32
	sec       uint32
	gameStart int64
}

// NewSession creates a stats session for one game.
func NewSession(cfg Config) *Session {
	s := &Session{
		gameName: cfg.GameName,
		resolver: cfg.Resolver,
		sink:     cfg.Sink,
		now:      cfg.Now,
		log:      cfg.Log,
	}
	if s.resolver == nil {
		s.resolver = noResolver{}
	}
	if s.sink == nil {
		s.sink = noSink{}
	}
	if s.now == nil {
		s.now = func() int64 { return time.Now().Unix() }
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("game", cfg.GameName)
	return s
}

// ProcessAction scans one action blob for embedded telemetry and
// applies whatever it finds. It returns true exactly when this call
// resolved the winner, i.e. on the transition from no winner to a
// reported one; use GameOver for the level-triggered view.
func (s *Session) ProcessAction(action []byte) bool {
	before := s.winner
	sc := telemetryScanner{data: action}
	for rec, ok := sc.next(); ok; rec, ok = sc.next() {
		s.apply(rec)
	}
	return before == WinnerNone && s.winner != WinnerNone
}

// GameOver reports whether a winner has been observed.
func (s *Session) GameOver() bool { return s.winner != WinnerNone }

// Winner returns the reported winner value (0 when unresolved). Values
// outside {1,2} are preserved verbatim for diagnostics.
func (s *Session) Winner() uint32 { return s.winner }

// Player returns the accumulated record for a colour, or nil if no
// event has referenced it. The returned record is live until Finalize.
func (s *Session) Player(colour uint32) *PlayerRecord {
	if colour >= numSlots {
		return nil
	}
	return s.players[colour]
}

// playerRecord returns the record for a valid colour, creating it on
// first use. Callers must have checked validColour.
func (s *Session) playerRecord(colour uint32) *PlayerRecord {
	if s.players[colour] == nil {
		s.players[colour] = &PlayerRecord{Colour: colour}
	}
	return s.players[colour]
}

// apply classifies one telemetry record and mutates session state.
func (s *Session) apply(rec record) {
	switch {
	case rec.Namespace == NamespaceData:
		s.applyData(rec)
	case rec.Namespace == NamespaceGlobal:
		s.applyGlobal(rec)
	case isSlotNamespace(rec.Namespace):
		s.applySnapshot(parseColour(rec.Namespace), rec)
	}
}

// dataHandlers dispatches "Data" namespace keys by prefix, first match
// wins. Which colour identifies the subject differs per key: some use
// the 4 byte value, Level and Assist use the key suffix. The asymmetry
// is how the map behaves, not a transcription error.
var dataHandlers = []struct {
	prefix string
	minLen int
	fn     func(s *Session, suffix string, rec record)
}{
	{"Hero", 5, (*Session).heroKilled},
	{"Level", 6, (*Session).levelReached},
	{"Assist", 7, (*Session).assistMade},
	{"Courier", 8, (*Session).courierKilled},
	{"Tower", 8, (*Session).towerDestroyed},
	{"Rax", 6, (*Session).raxDestroyed},
	{"Throne", 6, (*Session).throneHurt},
	{"Tree", 4, (*Session).treeHurt},
	{"CK", 2, (*Session).playerDisconnected},
	{"CSK", 3, (*Session).creepKillsReported},
	{"CSD", 3, (*Session).creepDeniesReported},
	{"NK", 2, (*Session).neutralKillsReported},
	{"GameStart", 9, (*Session).gameStarted},
}

func (s *Session) applyData(rec record) {
	for _, h := range dataHandlers {
		if len(rec.Key) >= h.minLen && strings.HasPrefix(rec.Key, h.prefix) {
			h.fn(s, rec.Key[len(h.prefix):], rec)
			return
		}
	}
	// unknown keys are ignored for forward compatibility
}

// heroKilled handles "Hero<victimColour>" with the killer colour in the
// value. Either side may be unresolvable: the killer can be the team
// itself (0 or 6) and the victim can have left already.
func (s *Session) heroKilled(suffix string, rec record) {
	killerColour := rec.Uint32()
	victimColour := parseColour(suffix)
	killer, haveKiller := s.resolver.PlayerFromColour(killerColour)
	victim, haveVictim := s.resolver.PlayerFromColour(victimColour)

	switch {
	case haveKiller && haveVictim:
		if validColour(killerColour) {
			p := s.playerRecord(killerColour)
			if killer.Name() != victim.Name() {
				p.Kills++
			}
		}
		if validColour(victimColour) {
			s.playerRecord(victimColour).Deaths++
		}
		s.log.WithFields(logrus.Fields{
			"killer": killer.Name(),
			"victim": victim.Name(),
		}).Info("hero killed")
		s.sink.DotAEventAdd(EventKill, s.gameName, killer.Name(), victim.Name(), killerColour, victimColour)

	case haveKiller:
		// someone killed a leaver; nothing to attribute

	case haveVictim:
		if validColour(victimColour) {
			s.playerRecord(victimColour).Deaths++
		}
		if killerColour == ColourSentinel || killerColour == ColourScourge {
			s.log.WithField("victim", victim.Name()).Infof("the %s killed a hero", teamName(killerColour))
		}
	}
}

// levelReached handles "Level<level>"; the subject colour rides in the
// value and the level in the key suffix.
func (s *Session) levelReached(suffix string, rec record) {
	level := parseColour(suffix)
	colour := rec.Uint32()
	if _, ok := s.resolver.PlayerFromColour(colour); !ok {
		return
	}
	if validColour(colour) {
		s.playerRecord(colour).Level = level
	}
}

// assistMade handles "Assist<assisterColour>" with the victim colour in
// the value. Both parties must still be resolvable.
func (s *Session) assistMade(suffix string, rec record) {
	assister := parseColour(suffix)
	if _, ok := s.resolver.PlayerFromColour(assister); !ok {
		return
	}
	if _, ok := s.resolver.PlayerFromColour(rec.Uint32()); !ok {
		return
	}
	if validColour(assister) {
		s.playerRecord(assister).Assists++
	}
}

// courierKilled handles "Courier<ownerColour>" with the killer colour
// in the value.
func (s *Session) courierKilled(suffix string, rec record) {
	killerColour := rec.Uint32()
	if validColour(killerColour) {
		s.playerRecord(killerColour).CourierKills++
	}

	ownerColour := parseColour(suffix)
	killer, haveKiller := s.resolver.PlayerFromColour(killerColour)
	owner, haveOwner := s.resolver.PlayerFromColour(ownerColour)
	if haveKiller && haveOwner {
		s.log.WithFields(logrus.Fields{
			"killer": killer.Name(),
			"owner":  owner.Name(),
		}).Info("courier killed")
	} else if haveOwner && (killerColour == ColourSentinel || killerColour == ColourScourge) {
		s.log.WithField("owner", owner.Name()).Infof("the %s killed a courier", teamName(killerColour))
	}
}

// towerDestroyed handles "Tower<alliance><level><side>" with the killer
// colour in the value.
func (s *Session) towerDestroyed(suffix string, rec record) {
	killerColour := rec.Uint32()
	if validColour(killerColour) {
		s.playerRecord(killerColour).TowerKills++
	}

	alliance := allianceName(suffix[0])
	level := string(suffix[1])
	side := sideName(suffix[2])

	if killer, ok := s.resolver.PlayerFromColour(killerColour); ok {
		s.log.WithFields(logrus.Fields{
			"killer":   killer.Name(),
			"alliance": alliance,
			"level":    level,
			"side":     side,
		}).Info("tower destroyed")
		s.sink.DotAEventAdd(EventTower, s.gameName, killer.Name(), level+","+alliance+","+side, killerColour, 0)
	} else if killerColour == ColourSentinel || killerColour == ColourScourge {
		s.log.WithFields(logrus.Fields{
			"alliance": alliance,
			"level":    level,
			"side":     side,
		}).Infof("the %s destroyed a tower", teamName(killerColour))
	}
}

// raxDestroyed handles "Rax<alliance><side><type>" with the killer
// colour in the value.
func (s *Session) raxDestroyed(suffix string, rec record) {
	killerColour := rec.Uint32()
	if validColour(killerColour) {
		s.playerRecord(killerColour).RaxKills++
	}

	alliance := allianceName(suffix[0])
	side := sideName(suffix[1])
	raxType := raxTypeName(suffix[2])

	if killer, ok := s.resolver.PlayerFromColour(killerColour); ok {
		s.log.WithFields(logrus.Fields{
			"killer":   killer.Name(),
			"alliance": alliance,
			"side":     side,
			"type":     raxType,
		}).Info("rax destroyed")
	} else if killerColour == ColourSentinel || killerColour == ColourScourge {
		s.log.WithFields(logrus.Fields{
			"alliance": alliance,
			"side":     side,
			"type":     raxType,
		}).Infof("the %s destroyed a rax", teamName(killerColour))
	}
}

func (s *Session) throneHurt(suffix string, rec record) {
	s.log.WithField("hp", rec.Uint32()).Info("the Frozen Throne took damage")
}

func (s *Session) treeHurt(suffix string, rec record) {
	s.log.WithField("hp", rec.Uint32()).Info("the World Tree took damage")
}

func (s *Session) playerDisconnected(suffix string, rec record) {
	// disconnect marker; no stats to record
}

func (s *Session) creepKillsReported(suffix string, rec record) {
	if colour := parseColour(suffix); validColour(colour) {
		s.playerRecord(colour).CreepKills = rec.Uint32()
	}
}

func (s *Session) creepDeniesReported(suffix string, rec record) {
	if colour := parseColour(suffix); validColour(colour) {
		s.playerRecord(colour).CreepDenies = rec.Uint32()
	}
}

func (s *Session) neutralKillsReported(suffix string, rec record) {
	if colour := parseColour(suffix); validColour(colour) {
		s.playerRecord(colour).NeutralKills = rec.Uint32()
	}
}

func (s *Session) gameStarted(suffix string, rec record) {
	s.gameStart = s.now()
	s.log.Info("map sent GameStart")
}

// applyGlobal handles end of game fields. The winner value is stored
// verbatim; values outside {1,2} resolve every player to a loss.
func (s *Session) applyGlobal(rec record) {
	switch rec.Key {
	case "Winner":
		s.winner = rec.Uint32()
		switch s.winner {
		case WinnerSentinel:
			s.log.Info("detected winner: Sentinel")
		case WinnerScourge:
			s.log.Info("detected winner: Scourge")
		default:
			s.log.WithField("value", s.winner).Info("detected winner")
		}
	case "m":
		s.min = rec.Uint32()
	case "s":
		s.sec = rec.Uint32()
	}
}

// applySnapshot handles per-player fields sent under a numeric
// namespace, mostly at the end of the game ("id" arrives at game start
// and "9" at hero pick).
func (s *Session) applySnapshot(colour uint32, rec record) {
	if !validColour(colour) {
		return
	}
	p := s.playerRecord(colour)

	if player, ok := s.resolver.PlayerFromColour(colour); ok {
		player.SetTeam(colourTeam(colour))
	}

	switch rec.Key {
	case "1", "2", "5":
		// kills, deaths and assists already counted from live events
	case "3":
		p.CreepKills = rec.Uint32()
	case "4":
		p.CreepDenies = rec.Uint32()
	case "6":
		p.Gold = rec.Uint32()
	case "7":
		p.NeutralKills = rec.Uint32()
	case "8_0", "8_1", "8_2", "8_3", "8_4", "8_5":
		slot := rec.Key[2] - '0'
		p.Items[slot] = rec.ReversedString()
	case "9":
		p.Hero = rec.ReversedString()
	case "id":
		// the map numbers players 1-10 but colours run 1-5 and 7-11,
		// so scourge ids shift up by one
		v := rec.Uint32()
		if v >= 6 {
			p.NewColour = v + 1
		} else {
			p.NewColour = v
		}
	}
}

// Finalize validates the accumulated records and submits one game row
// plus one row per surviving player to the sink. leavers supplies
// (colour, name) pairs captured as players left, used to backfill
// display names. A duplicate colour aborts the save with zero rows
// submitted and returns ErrDuplicateColour.
func (s *Session) Finalize(gameID uint32, leavers []LobbyPlayer) (*GameResult, error) {
	s.deriveDuration()

	// re-validate colours; garbage should have been rejected during
	// scanning but the save path checks anyway
	var survivors []*PlayerRecord
	for _, p := range s.players {
		if p == nil {
			continue
		}
		if !validColour(p.Colour) {
			s.log.WithField("colour", p.Colour).Warn("discarding player data, invalid colour")
			continue
		}
		survivors = append(survivors, p)
	}

	for i, p := range survivors {
		for _, q := range survivors[i+1:] {
			if p.Colour == q.Colour {
				s.log.Warn("discarding game data, duplicate colour found")
				return nil, ErrDuplicateColour
			}
		}
	}

	result := &GameResult{
		GameID:  gameID,
		Winner:  s.winner,
		Min:     s.min,
		Sec:     s.sec,
		Players: survivors,
	}

	result.Pending = append(result.Pending, s.sink.DotAGameAdd(gameID, s.winner, s.min, s.sec))

	for _, p := range survivors {
		if (p.Colour < ColourScourge && s.winner == WinnerSentinel) ||
			(p.Colour > ColourScourge && s.winner == WinnerScourge) {
			p.Outcome = OutcomeWin
		} else if s.winner == WinnerNone {
			p.Outcome = OutcomeDraw
		} else {
			p.Outcome = OutcomeLoss
		}

		for _, l := range leavers {
			if l.Colour == p.Colour {
				p.Name = l.Name
				break
			}
		}

		result.Pending = append(result.Pending, s.sink.DotAPlayerAdd(gameID, p))
	}

	s.log.WithField("players", len(survivors)).Info("saving game stats")
	return result, nil
}

// deriveDuration fills min/sec from the GameStart timestamp when the
// explicit Global m/s fields never arrived. Negative wall clock deltas
// are clamped to zero.
func (s *Session) deriveDuration() {
	if s.min != 0 || s.sec != 0 || s.gameStart == 0 {
		return
	}
	delta := s.now() - s.gameStart
	if delta < 0 {
		delta = 0
	}
	s.min = uint32(delta / 60)
	s.sec = uint32(delta % 60)
}

// isSlotNamespace reports whether ns is a short numeric string naming a
// player slot.
func isSlotNamespace(ns string) bool {
	if len(ns) > 2 {
		return false
	}
	for i := 0; i < len(ns); i++ {
		if ns[i] < '0' || ns[i] > '9' {
			return false
		}
	}
	return true
}

// parseColour converts a decimal key suffix to an integer, yielding 0
// (never a valid colour) on garbage.
func parseColour(str string) uint32 {
	n, err := strconv.ParseUint(str, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

type noResolver struct{}

func (noResolver) PlayerFromColour(uint32) (Player, bool) { return nil, false }

// noSink swallows persistence requests; its pendings are born ready.
type noSink struct{}

type readyPending struct{}

func (readyPending) Ready() bool { return true }
func (readyPending) Err() error  { return nil }

func (noSink) DotAGameAdd(uint32, uint32, uint32, uint32) Pending { return readyPending{} }
func (noSink) DotAPlayerAdd(uint32, *PlayerRecord) Pending        { return readyPending{} }
func (noSink) DotAEventAdd(EventKind, string, string, string, uint32, uint32) Pending {
	return readyPending{}
}
