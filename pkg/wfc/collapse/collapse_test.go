package collapse_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/operator-framework/wfc/pkg/grid"
	"github.com/operator-framework/wfc/pkg/wfc"
	"github.com/operator-framework/wfc/pkg/wfc/collapse"
)

var (
	ringEdges = [][]wfc.Connection{
		{{To: 1, Direction: 0}, {To: 3, Direction: 2}},
		{{To: 0, Direction: 1}, {To: 2, Direction: 2}},
		{{To: 3, Direction: 1}, {To: 1, Direction: 3}},
		{{To: 0, Direction: 3}, {To: 2, Direction: 0}},
	}
	ringRules = wfc.Rules{
		{Direction: 0, Label: 0}: wfc.OneHot(3, 1),
		{Direction: 0, Label: 1}: wfc.OneHot(3, 2),
		{Direction: 1, Label: 1}: wfc.OneHot(3, 0),
		{Direction: 1, Label: 2}: wfc.OneHot(3, 1),
		{Direction: 2, Label: 0}: wfc.OneHot(3, 1),
		{Direction: 2, Label: 1}: wfc.OneHot(3, 2),
		{Direction: 3, Label: 1}: wfc.OneHot(3, 0),
		{Direction: 3, Label: 2}: wfc.OneHot(3, 1),
	}
	ringLabels = wfc.NewDomain(1, 2, 1)
)

func ring(first wfc.Domain) *wfc.Graph {
	g, err := wfc.NewGraph([]wfc.Domain{first, ringLabels, ringLabels, ringLabels}, ringEdges)
	Expect(err).NotTo(HaveOccurred())
	return g
}

func textExemplar(rows ...string) *wfc.Graph {
	text, err := grid.ParseText(strings.NewReader(strings.Join(rows, "\n")))
	Expect(err).NotTo(HaveOccurred())
	g, err := text.Exemplar(grid.Cardinal)
	Expect(err).NotTo(HaveOccurred())
	return g
}

func outputFor(exemplar *wfc.Graph, width, height int) *wfc.Graph {
	g, err := grid.Output(width, height, exemplar.AllLabels(), grid.Cardinal)
	Expect(err).NotTo(HaveOccurred())
	return g
}

func labelsOf(g *wfc.Graph) []wfc.Label {
	labels, ok := g.Labels()
	Expect(ok).To(BeTrue())
	return labels
}

type recordingTracer struct {
	attempts []int
	vertices []wfc.VertexIndex
}

func (t *recordingTracer) Trace(p wfc.AttemptPosition) {
	t.attempts = append(t.attempts, p.Attempt())
	t.vertices = append(t.vertices, p.Vertex())
}

var _ = Describe("Collapse", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with an exemplar", func() {
		var exemplar *wfc.Graph

		BeforeEach(func() {
			exemplar = textExemplar(
				"aabb",
				"aabb",
				"abbb",
			)
		})

		It("should produce a graph satisfying the exemplar's rules", func() {
			for seed := int64(0); seed < 10; seed++ {
				result, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 12, 6), collapse.WithSeed(seed))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Resolved()).To(BeTrue())
				Expect(result.Verify(exemplar.Rules())).To(Succeed())
			}
		})

		It("should be deterministic for a seed", func() {
			a, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 10, 10), collapse.WithSeed(234))
			Expect(err).NotTo(HaveOccurred())
			b, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 10, 10), collapse.WithSeed(234))
			Expect(err).NotTo(HaveOccurred())
			Expect(labelsOf(a)).To(Equal(labelsOf(b)))
		})

		It("should be deterministic for a seed when running attempts in parallel", func() {
			run := func() []wfc.Label {
				result, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 10, 10),
					collapse.WithSeed(7), collapse.WithParallelism(4))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Verify(exemplar.Rules())).To(Succeed())
				return labelsOf(result)
			}
			Expect(run()).To(Equal(run()))
		})

		It("should not modify the output graph", func() {
			output := outputFor(exemplar, 5, 5)
			_, err := collapse.Collapse(ctx, exemplar, output, collapse.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			for v := 0; v < output.Len(); v++ {
				Expect(output.Domain(wfc.VertexIndex(v))).To(Equal(exemplar.AllLabels()))
			}
		})

		It("should record metrics", func() {
			reg := prometheus.NewRegistry()
			_, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 6, 6),
				collapse.WithSeed(1), collapse.WithRegisterer(reg))
			Expect(err).NotTo(HaveOccurred())

			n, err := testutil.GatherAndCount(reg, "wfc_attempts_total")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			n, err = testutil.GatherAndCount(reg, "wfc_constraint_cache_hits_total")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("should honor a disabled cache", func() {
			result, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 6, 6),
				collapse.WithSeed(3), collapse.WithCacheSize(0))
			Expect(err).NotTo(HaveOccurred())
			cached, err := collapse.Collapse(ctx, exemplar, outputFor(exemplar, 6, 6),
				collapse.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(labelsOf(result)).To(Equal(labelsOf(cached)))
		})

		It("should stop when the context is done", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := collapse.Collapse(cancelled, exemplar, outputFor(exemplar, 4, 4), collapse.WithSeed(1))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())

			_, err = collapse.Collapse(cancelled, exemplar, outputFor(exemplar, 4, 4),
				collapse.WithSeed(1), collapse.WithParallelism(2))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("with hand written rules", func() {
		It("should resolve forced vertices without guessing", func() {
			c, err := collapse.New(collapse.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			result, err := c.CollapseRules(ctx, ringRules, ringLabels, ring(wfc.OneHot(3, 0)))
			Expect(err).NotTo(HaveOccurred())
			Expect(labelsOf(result)).To(Equal([]wfc.Label{0, 1, 2, 1}))
		})

		It("should either resolve or report a contradiction", func() {
			for seed := int64(0); seed < 20; seed++ {
				c, err := collapse.New(collapse.WithSeed(seed))
				Expect(err).NotTo(HaveOccurred())
				result, err := c.CollapseRules(ctx, ringRules, ringLabels, ring(ringLabels))
				if err != nil {
					Expect(collapse.IsContradiction(err)).To(BeTrue())
					continue
				}
				Expect(result.Verify(ringRules)).To(Succeed())
			}
		})

		It("should give up after the maximum number of attempts", func() {
			tracer := &recordingTracer{}
			c, err := collapse.New(collapse.WithSeed(1), collapse.WithMaxAttempts(3), collapse.WithTracer(tracer))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.CollapseRules(ctx, ringRules, ringLabels, ring(wfc.OneHot(3, 2)))

			var contradiction wfc.Contradiction
			Expect(errors.As(err, &contradiction)).To(BeTrue())
			Expect(contradiction.Attempts).To(Equal(3))
			Expect(contradiction.Vertex).To(Equal(wfc.VertexIndex(3)))
			Expect(contradiction.Infeasible).To(BeFalse())
			Expect(tracer.attempts).To(Equal([]int{0, 1, 2}))
			Expect(tracer.vertices).To(Equal([]wfc.VertexIndex{3, 3, 3}))
		})

		It("should default to ten attempts", func() {
			tracer := &recordingTracer{}
			c, err := collapse.New(collapse.WithSeed(1), collapse.WithTracer(tracer))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.CollapseRules(ctx, ringRules, ringLabels, ring(wfc.OneHot(3, 2)))
			Expect(collapse.IsContradiction(err)).To(BeTrue())
			Expect(tracer.attempts).To(HaveLen(collapse.DefaultMaxAttempts))
		})

		It("should trace every failed parallel attempt in order", func() {
			tracer := &recordingTracer{}
			c, err := collapse.New(collapse.WithSeed(1), collapse.WithMaxAttempts(5),
				collapse.WithParallelism(2), collapse.WithTracer(tracer))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.CollapseRules(ctx, ringRules, ringLabels, ring(wfc.OneHot(3, 2)))
			Expect(collapse.IsContradiction(err)).To(BeTrue())
			Expect(tracer.attempts).To(Equal([]int{0, 1, 2, 3, 4}))
		})

		It("should keep feasible outputs distinct from infeasible ones", func() {
			c, err := collapse.New(collapse.WithSeed(1), collapse.WithMaxAttempts(2), collapse.WithFeasibilityCheck())
			Expect(err).NotTo(HaveOccurred())

			_, err = c.CollapseRules(ctx, ringRules, ringLabels, ring(wfc.OneHot(3, 2)))
			var contradiction wfc.Contradiction
			Expect(errors.As(err, &contradiction)).To(BeTrue())
			Expect(contradiction.Infeasible).To(BeFalse())

			full := wfc.NewDomain(1, 1)
			triangle, err := wfc.NewGraph([]wfc.Domain{full, full, full}, [][]wfc.Connection{
				{{To: 1}, {To: 2}},
				{{To: 0}, {To: 2}},
				{{To: 0}, {To: 1}},
			})
			Expect(err).NotTo(HaveOccurred())
			differ := wfc.Rules{
				{Direction: 0, Label: 0}: wfc.OneHot(2, 1),
				{Direction: 0, Label: 1}: wfc.OneHot(2, 0),
			}
			_, err = c.CollapseRules(ctx, differ, full, triangle)
			Expect(errors.As(err, &contradiction)).To(BeTrue())
			Expect(contradiction.Infeasible).To(BeTrue())
			Expect(err.Error()).To(HaveSuffix("(output is unsatisfiable)"))
		})
	})

	Context("with invalid input", func() {
		It("should reject an unresolved exemplar", func() {
			exemplar := ring(ringLabels)
			_, err := collapse.Collapse(ctx, exemplar, ring(ringLabels), collapse.WithSeed(1))
			Expect(errors.Is(err, wfc.ErrInvalidInput)).To(BeTrue())
		})

		It("should reject an empty exemplar", func() {
			empty, err := wfc.NewGraph(nil, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = collapse.Collapse(ctx, empty, ring(ringLabels), collapse.WithSeed(1))
			Expect(errors.Is(err, wfc.ErrInvalidInput)).To(BeTrue())
		})

		It("should reject an output with a different label count", func() {
			exemplar := textExemplar("ab", "ba")
			_, err := collapse.Collapse(ctx, exemplar, ring(ringLabels), collapse.WithSeed(1))
			Expect(errors.Is(err, wfc.ErrInvalidInput)).To(BeTrue())
		})

		It("should reject labels the exemplar never produced", func() {
			c, err := collapse.New(collapse.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			_, err = c.CollapseRules(ctx, ringRules, wfc.NewDomain(1, 2, 0), ring(ringLabels))
			Expect(errors.Is(err, wfc.ErrInvalidInput)).To(BeTrue())
			Expect(collapse.IsContradiction(err)).To(BeFalse())
		})

		It("should reject vertices without any label", func() {
			c, err := collapse.New(collapse.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			output, err := wfc.NewGraph(
				[]wfc.Domain{wfc.NewDomain(1, 1), wfc.NewDomain(0, 0)},
				make([][]wfc.Connection, 2),
			)
			Expect(err).NotTo(HaveOccurred())

			var result *wfc.Graph
			Expect(func() {
				result, err = c.CollapseRules(ctx, wfc.Rules{}, wfc.NewDomain(1, 1), output)
			}).NotTo(Panic())
			Expect(result).To(BeNil())
			Expect(errors.Is(err, wfc.ErrInvalidInput)).To(BeTrue())
			Expect(collapse.IsContradiction(err)).To(BeFalse())
		})

		It("should reject invalid options", func() {
			_, err := collapse.New(collapse.WithMaxAttempts(0))
			Expect(err).To(HaveOccurred())
			_, err = collapse.New(collapse.WithParallelism(0))
			Expect(err).To(HaveOccurred())
		})
	})

	It("should pick a seed when none is given", func() {
		c, err := collapse.New()
		Expect(err).NotTo(HaveOccurred())
		d, err := collapse.New(collapse.WithSeed(c.Seed()))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Seed()).To(Equal(c.Seed()))
	})
})
