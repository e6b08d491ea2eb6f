// Package scheduler implements the Agent Loop described in spec §2
// and §5: it owns a configurable pool of Workers over the shared
// stores, periodic snapshotting, and cooperative shutdown.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/automenta/flowmind/internal/config"
	"github.com/automenta/flowmind/internal/executor"
	"github.com/automenta/flowmind/internal/persistence"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/worker"
)

// Scheduler owns the worker pool and the periodic persistence
// goroutine, grounded in the reference server's own top-level
// run-loop-plus-background-ticker composition.
type Scheduler struct {
	cfg     *config.Config
	workers []*worker.Worker
	store   *persistence.Store

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New constructs a Scheduler with cfg.NumWorkers workers, each sharing
// the same ThoughtStore/RuleStore/Executor.
func New(cfg *config.Config, thoughts *thought.Store, rules *rule.Store, exec *executor.Executor, store *persistence.Store) *Scheduler {
	workers := make([]*worker.Worker, cfg.NumWorkers)
	for i := range workers {
		workers[i] = worker.New(i, thoughts, rules, exec, cfg)
	}
	return &Scheduler{cfg: cfg, workers: workers, store: store}
}

// Run starts every worker and the periodic persistence loop, blocking
// until ctx is cancelled. On return, a final snapshot has already been
// written (best-effort — errors are logged, not propagated, since
// shutdown must still complete).
func (s *Scheduler) Run(ctx context.Context) {
	for _, w := range s.workers {
		s.wg.Add(1)
		go func(w *worker.Worker) {
			defer s.wg.Done()
			w.Run(ctx)
		}(w)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persistenceLoop(ctx)
	}()

	<-ctx.Done()
	s.wg.Wait()
	s.finalSnapshot()
}

func (s *Scheduler) persistenceLoop(ctx context.Context) {
	if s.store == nil || s.cfg.PersistenceIntervalMillis <= 0 {
		return
	}
	interval := time.Duration(s.cfg.PersistenceIntervalMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.Snapshot(s.cfg); err != nil {
				log.Printf("warning: periodic persistence snapshot failed: %v", err)
			}
		}
	}
}

func (s *Scheduler) finalSnapshot() {
	if s.store == nil {
		return
	}
	if err := s.store.Snapshot(s.cfg); err != nil {
		log.Printf("warning: final persistence snapshot on shutdown failed: %v", err)
	}
}
