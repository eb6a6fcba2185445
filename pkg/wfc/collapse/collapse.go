package collapse

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/wfc/internal/engine"
	"github.com/operator-framework/wfc/internal/feasibility"
	"github.com/operator-framework/wfc/internal/metrics"
	"github.com/operator-framework/wfc/pkg/wfc"
)

// seedStride spreads the seeds of parallel attempts apart.
const seedStride = -7046029254386353131 // 0x9E3779B97F4A7C15 as int64

// Collapser resolves output graphs against the rules of an exemplar,
// retrying from scratch whenever an attempt ends in a contradiction.
type Collapser struct {
	seed             int64
	seeded           bool
	maxAttempts      int
	parallelism      int
	cacheSize        int
	checkFeasibility bool
	log              logr.Logger
	tracer           wfc.Tracer
	metrics          *metrics.Recorder
}

func New(options ...Option) (*Collapser, error) {
	c := newCollapser()
	for _, option := range append(options, defaults...) {
		if err := option(&c); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Seed returns the seed in use, which is useful to reproduce a collapse
// that ran with a clock-derived seed.
func (c *Collapser) Seed() int64 {
	return c.seed
}

// Collapse resolves every vertex of output using the rules and label
// frequencies learned from exemplar, which must be fully resolved.
// output itself is never modified. On success the returned graph has a
// singleton domain on every vertex; if every attempt fails the error is
// a wfc.Contradiction.
func Collapse(ctx context.Context, exemplar, output *wfc.Graph, options ...Option) (*wfc.Graph, error) {
	c, err := New(options...)
	if err != nil {
		return nil, err
	}
	return c.Collapse(ctx, exemplar, output)
}

func (c *Collapser) Collapse(ctx context.Context, exemplar, output *wfc.Graph) (*wfc.Graph, error) {
	if exemplar.Len() == 0 {
		return nil, fmt.Errorf("%w: exemplar has no vertices", wfc.ErrInvalidInput)
	}
	if !exemplar.Resolved() {
		return nil, fmt.Errorf("%w: exemplar is not fully resolved", wfc.ErrInvalidInput)
	}
	return c.CollapseRules(ctx, exemplar.Rules(), exemplar.AllLabels(), output)
}

// CollapseRules is Collapse with rules and label frequencies given
// directly instead of being learned from an exemplar.
func (c *Collapser) CollapseRules(ctx context.Context, rules wfc.Rules, allLabels wfc.Domain, output *wfc.Graph) (*wfc.Graph, error) {
	if output.Len() > 0 && output.NumLabels() != len(allLabels) {
		return nil, fmt.Errorf("%w: output has %d labels, exemplar has %d", wfc.ErrInvalidInput, output.NumLabels(), len(allLabels))
	}

	cache := engine.NewConstraintCache(rules, c.cacheSize)
	defer func() {
		c.metrics.ObserveCache(cache.Stats())
	}()

	var (
		result *wfc.Graph
		last   wfc.VertexIndex
		err    error
	)
	if c.parallelism > 1 {
		result, last, err = c.parallel(ctx, cache, allLabels, output)
	} else {
		result, last, err = c.sequential(ctx, cache, allLabels, output)
	}
	if err != nil || result != nil {
		return result, err
	}

	contradiction := wfc.Contradiction{Attempts: c.maxAttempts, Vertex: last}
	if c.checkFeasibility {
		res, err := feasibility.Check(rules, output)
		switch {
		case err != nil:
			c.log.Error(err, "feasibility check failed")
		case !res.Satisfiable:
			contradiction.Infeasible = true
		}
	}
	c.log.Info("no consistent assignment found", "attempts", c.maxAttempts, "infeasible", contradiction.Infeasible)
	return nil, contradiction
}

// sequential threads one random stream through every attempt.
func (c *Collapser) sequential(ctx context.Context, cache *engine.ConstraintCache, allLabels wfc.Domain, output *wfc.Graph) (*wfc.Graph, wfc.VertexIndex, error) {
	rng := rand.New(rand.NewSource(c.seed)) //nolint:gosec // G404: deterministic output is the point
	last := wfc.VertexIndex(-1)
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, last, err
		}
		run, err := c.attempt(attempt, rng, cache, allLabels, output)
		if err != nil {
			return nil, last, err
		}
		if run.Outcome() == engine.Succeeded {
			return run.Graph(), last, nil
		}
		c.tracer.Trace(run.Position(attempt))
		last = run.Failed()
	}
	return nil, last, nil
}

// parallel runs attempts in batches, each with its own random stream.
// The lowest numbered successful attempt of the first batch containing
// one wins, so the result only depends on the seed.
func (c *Collapser) parallel(ctx context.Context, cache *engine.ConstraintCache, allLabels wfc.Domain, output *wfc.Graph) (*wfc.Graph, wfc.VertexIndex, error) {
	last := wfc.VertexIndex(-1)
	for first := 0; first < c.maxAttempts; first += c.parallelism {
		if err := ctx.Err(); err != nil {
			return nil, last, err
		}
		n := min(c.parallelism, c.maxAttempts-first)
		runs := make([]*engine.Run, n)

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				attempt := first + i
				rng := rand.New(rand.NewSource(c.seed + int64(attempt)*seedStride)) //nolint:gosec // G404: deterministic output is the point
				run, err := c.attempt(attempt, rng, cache, allLabels, output)
				if err != nil {
					return err
				}
				runs[i] = run
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, last, err
		}

		for i, run := range runs {
			if run.Outcome() == engine.Succeeded {
				return run.Graph(), last, nil
			}
			c.tracer.Trace(run.Position(first + i))
			last = run.Failed()
		}
	}
	return nil, last, nil
}

func (c *Collapser) attempt(attempt int, rng *rand.Rand, cache *engine.ConstraintCache, allLabels wfc.Domain, output *wfc.Graph) (*engine.Run, error) {
	log := c.log.WithValues("run", uuid.NewString(), "attempt", attempt)
	run, err := engine.NewRun(rng, cache, allLabels, output.Clone(), engine.WithLogger(log))
	if err != nil {
		return nil, err
	}
	outcome := run.Exec()
	stats := run.Stats()
	c.metrics.ObserveAttempt(outcome.String(), stats.Propagations, stats.Collapses)
	log.V(1).Info("attempt finished", "outcome", outcome.String(), "propagations", stats.Propagations, "collapses", stats.Collapses)
	return run, nil
}

// IsContradiction reports whether err is, or wraps, a wfc.Contradiction.
func IsContradiction(err error) bool {
	return errors.As(err, &wfc.Contradiction{})
}
