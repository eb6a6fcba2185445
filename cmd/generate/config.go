package generate

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/operator-framework/wfc/pkg/grid"
	"github.com/operator-framework/wfc/pkg/wfc/collapse"
)

// Config holds the settings of a generate run. It can be loaded from a
// YAML file; flags set on the command line take precedence.
type Config struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Seed        *int64 `yaml:"seed,omitempty"`
	Attempts    int    `yaml:"attempts"`
	EightWay    bool   `yaml:"eight_way"`
	Parallel    int    `yaml:"parallel"`
	CacheSize   int    `yaml:"cache_size"`
	Feasibility bool   `yaml:"feasibility"`
	Metrics     bool   `yaml:"metrics"`
}

func DefaultConfig() Config {
	return Config{
		Width:     16,
		Height:    16,
		Attempts:  collapse.DefaultMaxAttempts,
		Parallel:  1,
		CacheSize: 4096,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file (%s): %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot produce a grid.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("width and height must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Attempts < 1 {
		errs = append(errs, fmt.Errorf("attempts must be at least 1, got %d", c.Attempts))
	}
	if c.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be at least 1, got %d", c.Parallel))
	}
	return errors.Join(errs...)
}

// Connectivity returns the grid connectivity selected by the config.
func (c Config) Connectivity() grid.Connectivity {
	if c.EightWay {
		return grid.EightWay
	}
	return grid.Cardinal
}

// Options translates the config into collapse options.
func (c Config) Options() []collapse.Option {
	opts := []collapse.Option{
		collapse.WithMaxAttempts(c.Attempts),
		collapse.WithParallelism(c.Parallel),
		collapse.WithCacheSize(c.CacheSize),
	}
	if c.Seed != nil {
		opts = append(opts, collapse.WithSeed(*c.Seed))
	}
	if c.Feasibility {
		opts = append(opts, collapse.WithFeasibilityCheck())
	}
	return opts
}

func addFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.StringP("config", "c", "", "YAML config file; explicit flags override its values")
	flags.IntP("width", "W", d.Width, "output width in cells")
	flags.IntP("height", "H", d.Height, "output height in cells")
	flags.Int64P("seed", "s", 0, "random seed (default: derived from the clock)")
	flags.IntP("attempts", "a", d.Attempts, "attempts before giving up")
	flags.Bool("eight-way", d.EightWay, "connect diagonal neighbors too")
	flags.IntP("parallel", "p", d.Parallel, "attempts to run concurrently")
	flags.Int("cache-size", d.CacheSize, "constraint cache entries (0 disables)")
	flags.Bool("feasibility", d.Feasibility, "on failure, check whether any solution exists")
	flags.Bool("metrics", d.Metrics, "print collapse metrics after the run")
}

// configFromFlags loads the config file, if any, and applies every flag
// that was set explicitly.
func configFromFlags(flags *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}
	set("width", func() (e error) { cfg.Width, e = flags.GetInt("width"); return })
	set("height", func() (e error) { cfg.Height, e = flags.GetInt("height"); return })
	set("attempts", func() (e error) { cfg.Attempts, e = flags.GetInt("attempts"); return })
	set("eight-way", func() (e error) { cfg.EightWay, e = flags.GetBool("eight-way"); return })
	set("parallel", func() (e error) { cfg.Parallel, e = flags.GetInt("parallel"); return })
	set("cache-size", func() (e error) { cfg.CacheSize, e = flags.GetInt("cache-size"); return })
	set("feasibility", func() (e error) { cfg.Feasibility, e = flags.GetBool("feasibility"); return })
	set("metrics", func() (e error) { cfg.Metrics, e = flags.GetBool("metrics"); return })
	set("seed", func() error {
		seed, e := flags.GetInt64("seed")
		cfg.Seed = &seed
		return e
	})
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
