package grid_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/wfc/pkg/grid"
	"github.com/operator-framework/wfc/pkg/wfc"
)

var _ = Describe("Edges", func() {
	It("should connect cardinal neighbors in row-major order", func() {
		edges, err := grid.Edges(2, 2, grid.Cardinal)
		Expect(err).NotTo(HaveOccurred())
		Expect(edges).To(Equal([][]wfc.Connection{
			{{To: 2, Direction: grid.South}, {To: 1, Direction: grid.East}},
			{{To: 3, Direction: grid.South}, {To: 0, Direction: grid.West}},
			{{To: 0, Direction: grid.North}, {To: 3, Direction: grid.East}},
			{{To: 1, Direction: grid.North}, {To: 2, Direction: grid.West}},
		}))
	})

	It("should connect diagonal neighbors with eight-way connectivity", func() {
		edges, err := grid.Edges(3, 3, grid.EightWay)
		Expect(err).NotTo(HaveOccurred())
		Expect(edges[4]).To(HaveLen(8))
		Expect(edges[0]).To(HaveLen(3))
		Expect(edges[0]).To(ContainElement(wfc.Connection{To: 4, Direction: grid.SouthEast}))
	})

	DescribeTable("should pair every edge with its reverse",
		func(width, height int, c grid.Connectivity) {
			edges, err := grid.Edges(width, height, c)
			Expect(err).NotTo(HaveOccurred())
			for v, conns := range edges {
				for _, conn := range conns {
					Expect(edges[conn.To]).To(ContainElement(wfc.Connection{
						To:        wfc.VertexIndex(v),
						Direction: grid.Reverse(conn.Direction),
					}))
				}
			}
		},
		Entry("cardinal", 4, 3, grid.Cardinal),
		Entry("eight-way", 4, 3, grid.EightWay),
		Entry("single row", 5, 1, grid.EightWay),
	)

	It("should reverse directions", func() {
		Expect(grid.Reverse(grid.North)).To(Equal(grid.South))
		Expect(grid.Reverse(grid.West)).To(Equal(grid.East))
		Expect(grid.Reverse(grid.NorthEast)).To(Equal(grid.SouthWest))
		Expect(grid.Reverse(grid.SouthEast)).To(Equal(grid.NorthWest))
	})

	It("should reject empty grids", func() {
		_, err := grid.Edges(0, 3, grid.Cardinal)
		Expect(errors.Is(err, grid.ErrEmptyGrid)).To(BeTrue())
	})

	It("should name its connectivity", func() {
		Expect(grid.Cardinal.String()).To(Equal("cardinal"))
		Expect(grid.EightWay.String()).To(Equal("eight-way"))
	})
})

var _ = Describe("Exemplar", func() {
	It("should build a resolved graph", func() {
		g, err := grid.Exemplar([][]wfc.Label{{0, 1}, {1, 2}}, 3, grid.Cardinal)
		Expect(err).NotTo(HaveOccurred())
		labels, ok := g.Labels()
		Expect(ok).To(BeTrue())
		Expect(labels).To(Equal([]wfc.Label{0, 1, 1, 2}))
		Expect(g.AllLabels()).To(Equal(wfc.NewDomain(1, 2, 1)))
	})

	It("should reject ragged rows", func() {
		_, err := grid.Exemplar([][]wfc.Label{{0, 1}, {1}}, 2, grid.Cardinal)
		Expect(errors.Is(err, grid.ErrNonRectangular)).To(BeTrue())
	})

	It("should reject labels out of range", func() {
		_, err := grid.Exemplar([][]wfc.Label{{0, 3}}, 2, grid.Cardinal)
		Expect(err).To(HaveOccurred())
	})

	It("should build open outputs", func() {
		g, err := grid.Output(3, 2, wfc.NewDomain(2, 1), grid.Cardinal)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Len()).To(Equal(6))
		for v := 0; v < g.Len(); v++ {
			Expect(g.Domain(wfc.VertexIndex(v))).To(Equal(wfc.NewDomain(2, 1)))
		}
	})
})
