package store

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/condor/dota-stats/pkg/dota"
)

const defaultWriteTimeout = 10 * time.Second

// QueueConfig configures a Queue.
type QueueConfig struct {
	// BotID is stamped onto every game row.
	BotID uint32

	// WriteTimeout bounds each database write. Zero means 10s.
	WriteTimeout time.Duration

	// Log receives write failures. Defaults to the standard logger.
	Log *logrus.Entry
}

// Queue feeds a Store from a single writer goroutine. Submissions
// never block; completion is observed through the returned Pending.
// Queue implements dota.Sink.
type Queue struct {
	store   Store
	botID   uint32
	timeout time.Duration
	log     *logrus.Entry

	mu     sync.Mutex
	jobs   []*job
	closed bool

	kick    chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup
}

type job struct {
	pending *Pending
	write   func(ctx context.Context) error
}

// NewQueue starts the writer goroutine over st. The caller owns st's
// lifetime until Close, which closes st after draining.
func NewQueue(st Store, cfg QueueConfig) *Queue {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	q := &Queue{
		store:   st,
		botID:   cfg.BotID,
		timeout: cfg.WriteTimeout,
		log:     cfg.Log,
		kick:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

// DotAGameAdd queues a game row.
func (q *Queue) DotAGameAdd(gameID, winner, min, sec uint32) dota.Pending {
	row := DotAGameRow{
		BotID:  q.botID,
		GameID: gameID,
		Winner: winner,
		Min:    min,
		Sec:    sec,
	}
	return q.submit("game", func(ctx context.Context) error {
		return q.store.DotAGameAdd(ctx, row)
	})
}

// DotAPlayerAdd queues a player row.
func (q *Queue) DotAPlayerAdd(gameID uint32, p *dota.PlayerRecord) dota.Pending {
	row := DotAPlayerRow{
		GameID:       gameID,
		Name:         p.Name,
		Colour:       p.Colour,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
		CreepKills:   p.CreepKills,
		CreepDenies:  p.CreepDenies,
		Assists:      p.Assists,
		Gold:         p.Gold,
		NeutralKills: p.NeutralKills,
		Items:        p.Items,
		Hero:         p.Hero,
		NewColour:    p.NewColour,
		TowerKills:   p.TowerKills,
		RaxKills:     p.RaxKills,
		CourierKills: p.CourierKills,
		Outcome:      uint32(p.Outcome),
		Level:        p.Level,
		APM:          p.APM,
	}
	return q.submit("player", func(ctx context.Context) error {
		return q.store.DotAPlayerAdd(ctx, row)
	})
}

// DotAEventAdd queues an event row.
func (q *Queue) DotAEventAdd(kind dota.EventKind, gameName, killer, victim string, killerColour, victimColour uint32) dota.Pending {
	row := DotAEventRow{
		Kind:         uint32(kind),
		GameName:     gameName,
		Killer:       killer,
		Victim:       victim,
		KillerColour: killerColour,
		VictimColour: victimColour,
	}
	return q.submit("event", func(ctx context.Context) error {
		return q.store.DotAEventAdd(ctx, row)
	})
}

// Flush blocks until every submission made before the call completed.
func (q *Queue) Flush() {
	q.wg.Wait()
}

// Close drains the queue, stops the writer and closes the store.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.kick <- struct{}{}:
	default:
	}
	<-q.stopped

	return q.store.Close()
}

func (q *Queue) submit(kind string, write func(ctx context.Context) error) *Pending {
	p := newPending()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		p.complete(ErrClosed)
		return p
	}
	q.wg.Add(1)
	q.jobs = append(q.jobs, &job{pending: p, write: write})
	q.mu.Unlock()

	q.log.WithField("row", kind).Debug("queued write")

	select {
	case q.kick <- struct{}{}:
	default:
	}
	return p
}

func (q *Queue) run() {
	defer close(q.stopped)

	for {
		q.mu.Lock()
		batch := q.jobs
		q.jobs = nil
		closed := q.closed
		q.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-q.kick
			continue
		}

		for _, j := range batch {
			ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
			err := j.write(ctx)
			cancel()

			if err != nil {
				q.log.WithError(err).Error("statistics write failed")
			}
			j.pending.complete(err)
			q.wg.Done()
		}
	}
}
