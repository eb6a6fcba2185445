package collapse

import (
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/operator-framework/wfc/internal/engine"
	"github.com/operator-framework/wfc/internal/metrics"
	"github.com/operator-framework/wfc/pkg/wfc"
)

// DefaultMaxAttempts is the number of attempts made when WithMaxAttempts
// is not given.
const DefaultMaxAttempts = 10

type Option func(c *Collapser) error

// WithSeed makes the collapse reproducible. Without it the seed is
// taken from the clock.
func WithSeed(seed int64) Option {
	return func(c *Collapser) error {
		c.seed = seed
		c.seeded = true
		return nil
	}
}

// WithMaxAttempts bounds the number of attempts before a Contradiction
// is returned.
func WithMaxAttempts(n int) Option {
	return func(c *Collapser) error {
		if n < 1 {
			return errors.New("max attempts must be at least 1")
		}
		c.maxAttempts = n
		return nil
	}
}

func WithLogger(log logr.Logger) Option {
	return func(c *Collapser) error {
		c.log = log
		return nil
	}
}

// WithTracer reports every failed attempt to t.
func WithTracer(t wfc.Tracer) Option {
	return func(c *Collapser) error {
		c.tracer = t
		return nil
	}
}

// WithRegisterer records attempt metrics in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Collapser) error {
		r, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		c.metrics = r
		return nil
	}
}

// WithParallelism runs up to n attempts at once. Each attempt then uses
// its own random stream derived from the seed and the attempt number,
// instead of the single stream shared by sequential attempts, so the
// results differ from those of a sequential collapse with the same seed.
func WithParallelism(n int) Option {
	return func(c *Collapser) error {
		if n < 1 {
			return errors.New("parallelism must be at least 1")
		}
		c.parallelism = n
		return nil
	}
}

// WithFeasibilityCheck makes a failed collapse check whether the output
// graph has any solution at all. The result is reported in
// wfc.Contradiction.Infeasible.
func WithFeasibilityCheck() Option {
	return func(c *Collapser) error {
		c.checkFeasibility = true
		return nil
	}
}

// WithCacheSize bounds the constraint cache shared by all attempts. Zero
// disables caching.
func WithCacheSize(n int) Option {
	return func(c *Collapser) error {
		c.cacheSize = n
		return nil
	}
}

var defaults = []Option{
	func(c *Collapser) error {
		if !c.seeded {
			c.seed = time.Now().UnixNano()
			c.seeded = true
		}
		return nil
	},
	func(c *Collapser) error {
		if c.maxAttempts == 0 {
			c.maxAttempts = DefaultMaxAttempts
		}
		if c.parallelism == 0 {
			c.parallelism = 1
		}
		if c.cacheSize < 0 {
			c.cacheSize = 0
		}
		return nil
	},
	func(c *Collapser) error {
		if c.tracer == nil {
			c.tracer = wfc.DefaultTracer{}
		}
		return nil
	},
}

func newCollapser() Collapser {
	return Collapser{cacheSize: engine.DefaultCacheSize}
}
