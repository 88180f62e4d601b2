package main

import (
	"github.com/sirupsen/logrus"

	"github.com/condor/dota-stats/pkg/dota"
	"github.com/condor/dota-stats/pkg/w3g"
)

// replayPlayer adapts one replay roster entry to the stats session.
type replayPlayer struct {
	info *w3g.PlayerInfo
	team uint32
}

func (p *replayPlayer) Name() string { return p.info.Name }

func (p *replayPlayer) SetTeam(team uint32) { p.team = team }

// replayResolver resolves colours against the replay roster, honouring
// leave times: once the timeline passes a player's LeaveGame record the
// lookup fails, the same way a live lookup fails for a disconnected
// player.
type replayResolver struct {
	players map[uint32]*replayPlayer
	nowMs   uint32
}

func newReplayResolver(replay *w3g.Replay) *replayResolver {
	r := &replayResolver{players: make(map[uint32]*replayPlayer)}
	for _, info := range replay.Players {
		if info.IsObserver {
			continue
		}
		r.players[uint32(info.Colour)] = &replayPlayer{info: info}
	}
	return r
}

// advance moves the resolver's notion of game time forward.
func (r *replayResolver) advance(timeMs uint32) {
	if timeMs > r.nowMs {
		r.nowMs = timeMs
	}
}

func (r *replayResolver) PlayerFromColour(colour uint32) (dota.Player, bool) {
	p, ok := r.players[colour]
	if !ok {
		return nil, false
	}
	if p.info.LeftAtMs != nil && *p.info.LeftAtMs <= r.nowMs {
		return nil, false
	}
	return p, true
}

// rosterLeavers builds the name backfill list: recorded leavers in
// leave order, then everyone still in the game when the replay ended.
// The replay saver never gets a LeaveGame record of their own.
func rosterLeavers(replay *w3g.Replay) []dota.LobbyPlayer {
	var leavers []dota.LobbyPlayer
	seen := make(map[uint32]bool)

	for _, l := range replay.Leavers {
		colour := uint32(l.Colour)
		if seen[colour] {
			continue
		}
		seen[colour] = true
		leavers = append(leavers, dota.LobbyPlayer{Colour: colour, Name: l.Name})
	}

	for _, info := range replay.Players {
		colour := uint32(info.Colour)
		if info.IsObserver || seen[colour] {
			continue
		}
		seen[colour] = true
		leavers = append(leavers, dota.LobbyPlayer{Colour: colour, Name: info.Name})
	}

	return leavers
}

// runSession replays the action stream through a stats session and
// finalizes it.
func runSession(replay *w3g.Replay, gameID uint32, sink dota.Sink, log *logrus.Entry) (*dota.GameResult, error) {
	resolver := newReplayResolver(replay)

	// The session derives a missing duration from wall clock seconds;
	// for replays the clock is the replay timeline.
	clockMs := uint32(0)

	sess := dota.NewSession(dota.Config{
		GameName: replay.GameName,
		Resolver: resolver,
		Sink:     sink,
		Now:      func() int64 { return int64(clockMs / 1000) },
		Log:      log,
	})

	for _, action := range replay.Actions {
		clockMs = action.TimeMs
		resolver.advance(action.TimeMs)
		if sess.ProcessAction(action.Payload) {
			log.WithField("winner", sess.Winner()).Debug("winner resolved")
		}
	}

	return sess.Finalize(gameID, rosterLeavers(replay))
}
