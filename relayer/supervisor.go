package relayer

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// restartCooldown is how long the supervisor waits before restarting a
// watcher/handler pair whose task returned a non-fatal error. Var
// rather than const so tests can shrink it.
var restartCooldown = 5 * time.Second

// batchChannelSize bounds the watcher-to-handler channel per direction.
// Overflow blocks the watcher and transitively the upstream RPC
// subscription: the relayer would rather lag than drop.
const batchChannelSize = 16

// Direction wires one watcher/handler pair: events observed on Source
// are relayed as votes submitted to Dest.
type Direction struct {
	Name   string
	Source Source
	Dest   Destination
	Cursor CursorStore
	FromBlock uint64
}

// Supervisor is the relayer supervisor: it owns the shared config,
// the breaker bus, and spawns one watcher/handler pair per configured
// direction, restarting a pair after a cooldown on non-fatal failure
// and tearing the whole relayer down on a fatal breaker signal or an OS
// shutdown signal.
type Supervisor struct {
	cfg        *Config
	breaker    *Breaker
	directions []Direction
	log        *logrus.Entry
}

// NewSupervisor returns a supervisor for cfg, wiring the given
// directions. Each direction gets its own bounded batch channel.
func NewSupervisor(cfg *Config, directions []Direction, log *logrus.Entry) *Supervisor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Supervisor{cfg: cfg, breaker: NewBreaker(), directions: directions, log: log}
}

// Run spawns every direction's watcher/handler pair and blocks until ctx
// is cancelled, an OS shutdown signal (SIGINT/SIGTERM) is received, or
// every direction's pair has exited fatally.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, d := range s.directions {
		wg.Add(1)
		go func(d Direction) {
			defer wg.Done()
			s.runDirection(ctx, d)
		}(d)
	}
	wg.Wait()
	return nil
}

// runDirection supervises one direction's watcher and handler tasks for
// the lifetime of ctx, restarting either after restartCooldown if it
// returns a non-nil, non-fatal error.
func (s *Supervisor) runDirection(ctx context.Context, d Direction) {
	batches := make(chan EventsBatch, batchChannelSize)
	log := s.log.WithField("direction", d.Name)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.superviseLoop(ctx, "watcher:"+d.Name, log, func(ctx context.Context) error {
			w := NewWatcher(d.Name, d.Source, d.Cursor, s.breaker, batches, d.FromBlock, log)
			return w.Run(ctx)
		})
	}()

	go func() {
		defer wg.Done()
		s.superviseLoop(ctx, "handler:"+d.Name, log, func(ctx context.Context) error {
			h := NewHandler(d.Name, batches, d.Dest, s.breaker, log)
			return h.Run(ctx)
		})
	}()

	wg.Wait()
}

// superviseLoop restarts task after restartCooldown whenever it returns
// a non-nil error, until ctx is cancelled. A permanent error (one the
// handler has already escalated as a fatal breaker signal) ends the loop
// without a restart. Task names are logged so an
// operator can correlate restarts with the circuit-breaker reasons
// already logged by the watcher/handler themselves.
func (s *Supervisor) superviseLoop(ctx context.Context, name string, log *logrus.Entry, task func(context.Context) error) {
	for {
		err := task(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}
		if isPermanent(err) {
			log.WithError(err).WithField("task", name).Error("task failed permanently, not restarting")
			return
		}
		log.WithError(err).WithField("task", name).Warn("task failed, restarting after cooldown")
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartCooldown):
		}
	}
}
