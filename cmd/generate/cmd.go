package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/wfc/internal/logging"
	"github.com/operator-framework/wfc/pkg/grid"
	"github.com/operator-framework/wfc/pkg/wfc"
	"github.com/operator-framework/wfc/pkg/wfc/collapse"
)

func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <exemplar>",
		Short: "Generates a grid resembling an exemplar grid",
		Long: `Generates a grid whose neighboring cells follow the adjacency rules
of an exemplar. The exemplar is a text file in which every character is a
cell, for instance:

# a lone '#' or '#' followed by a space starts a comment line
#....#
#.##.#
#....#
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return generate(cmd.Context(), args[0], cfg, cmd.OutOrStdout())
		},
	}
	addFlags(cmd.Flags())
	return cmd
}

func generate(ctx context.Context, path string, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := logrus.NewEntry(logrus.StandardLogger()).WithField("exemplar", path)

	text, err := ReadExemplar(path)
	if err != nil {
		return err
	}
	exemplar, err := text.Exemplar(cfg.Connectivity())
	if err != nil {
		return fmt.Errorf("error building exemplar graph (%s): %w", path, err)
	}
	output, err := grid.Output(cfg.Width, cfg.Height, exemplar.AllLabels(), cfg.Connectivity())
	if err != nil {
		return err
	}

	opts := append(cfg.Options(), collapse.WithLogger(logging.NewLogger(entry)))
	registry := prometheus.NewRegistry()
	if cfg.Metrics {
		opts = append(opts, collapse.WithRegisterer(registry))
	}
	if entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		opts = append(opts, collapse.WithTracer(wfc.LoggingTracer{Writer: entry.Logger.Out}))
	}
	c, err := collapse.New(opts...)
	if err != nil {
		return err
	}
	entry.WithFields(logrus.Fields{
		"seed":   c.Seed(),
		"labels": len(text.Legend()),
		"width":  cfg.Width,
		"height": cfg.Height,
	}).Debug("generating")

	result, err := c.Collapse(ctx, exemplar, output)
	if cfg.Metrics {
		defer writeMetrics(out, registry)
	}
	if err != nil {
		if collapse.IsContradiction(err) {
			return fmt.Errorf("no grid found with seed %d: %w", c.Seed(), err)
		}
		return err
	}
	return grid.RenderText(out, result, text.Legend(), cfg.Width)
}

// ReadExemplar parses the exemplar text file at path.
func ReadExemplar(path string) (*grid.Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening exemplar file (%s): %w", path, err)
	}
	defer f.Close()

	text, err := grid.ParseText(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing exemplar file (%s): %w", path, err)
	}
	return text, nil
}

func writeMetrics(out io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logrus.Errorf("failed to gather metrics: %v", err)
		return
	}
	fmt.Fprintln(out, "---")
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			logrus.Errorf("failed to write metrics: %v", err)
			return
		}
	}
}
