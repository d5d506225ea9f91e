package exerciser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"crudprobe/internal/config"
	"crudprobe/internal/logging"
	"crudprobe/internal/routes"
	"crudprobe/internal/synth"

	"go.uber.org/zap"
)

// RunContext carries everything a run needs, assembled by the caller.
type RunContext struct {
	Config  config.Run
	Catalog *routes.Catalog
	Driver  Driver
	Seed    int64
}

// Runner owns the worker goroutine for one run. The caller consumes Progress
// until it closes, then reads Results. A Runner is single-use.
type Runner struct {
	ctx      RunContext
	progress chan ProgressEvent
	results  []TestResult
	counters Counters
	err      error
	done     chan struct{}
	log      *zap.Logger
}

// NewRunner builds a runner; Start launches the worker.
func NewRunner(rc RunContext) *Runner {
	return &Runner{
		ctx:      rc,
		progress: make(chan ProgressEvent, 64),
		done:     make(chan struct{}),
		log:      logging.Get(logging.CategoryRunner),
	}
}

// Progress is the event stream for the hosting UI. Closed when the run ends.
// Events are dropped rather than blocking the worker when the consumer lags.
func (r *Runner) Progress() <-chan ProgressEvent {
	return r.progress
}

// Start launches the worker goroutine. The run stops early only on a failed
// login or on context cancellation; everything else is recorded and skipped.
func (r *Runner) Start(ctx context.Context) {
	go r.work(ctx)
}

// Wait blocks until the worker finishes and returns the accumulated results
// and the run-fatal error, if any. Partial results survive a fatal error.
func (r *Runner) Wait() ([]TestResult, Counters, error) {
	<-r.done
	return r.results, r.counters, r.err
}

func (r *Runner) work(ctx context.Context) {
	defer close(r.done)
	defer close(r.progress)

	started := time.Now()
	cfg := r.ctx.Config
	rng := rand.New(rand.NewSource(r.ctx.Seed))

	// Login is the one stage that aborts the run: nothing downstream is
	// meaningful without an authenticated session.
	r.publish(PhaseLogin, nil)
	state, err := r.ctx.Driver.Login(ctx, cfg.Identifier, cfg.Secret)
	if err != nil {
		r.err = fmt.Errorf("login: %w", err)
		r.log.Error("login failed, aborting run", zap.Error(err))
		r.publish(PhaseDone, nil)
		return
	}
	r.log.Info("authenticated", zap.Bool("logged_in", state.LoggedIn))

	emit := func(result TestResult) {
		r.results = append(r.results, result)
		r.counters.observe(result)
		r.publish(r.phaseOf(result), &result)
	}

	uris := r.ctx.Catalog.SimpleRoutes(rng)
	r.log.Info("link sweep starting", zap.Int("routes", len(uris)))
	r.publish(PhaseLinks, nil)
	NewLinkExerciser(r.ctx.Driver, cfg).Run(ctx, uris, emit)

	if ctx.Err() == nil {
		groups := routes.PrioritizeGroups(
			routes.GroupByResource(r.ctx.Catalog.All()),
			cfg.Limits.GetMaxCrudResources(), rng)
		r.log.Info("crud phase starting", zap.Int("resources", len(groups)))
		r.publish(PhaseCrud, nil)

		crud := NewCrudExerciser(r.ctx.Driver, synth.New(uint64(r.ctx.Seed)), cfg)
		for _, group := range groups {
			if ctx.Err() != nil {
				r.log.Info("crud phase cancelled")
				break
			}
			crud.ExerciseResource(ctx, group, emit)
		}
	}

	r.log.Info("run complete",
		zap.Int("results", len(r.results)),
		zap.Int("passed", r.counters.Passed),
		zap.Int("failed", r.counters.Failed),
		zap.Int("errored", r.counters.Errored),
		zap.Duration("elapsed", time.Since(started)))
	r.publish(PhaseDone, nil)
}

func (r *Runner) phaseOf(result TestResult) Phase {
	if result.Type == TypeRouteLink {
		return PhaseLinks
	}
	return PhaseCrud
}

// publish sends an event without ever blocking the worker.
func (r *Runner) publish(phase Phase, latest *TestResult) {
	ev := ProgressEvent{Phase: phase, Counters: r.counters, Latest: latest}
	select {
	case r.progress <- ev:
	default:
	}
}
