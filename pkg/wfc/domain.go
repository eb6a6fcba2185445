package wfc

import (
	"fmt"
	"math"
	"strings"
)

// Domain is the weighted multiset of labels a vertex may still take.
// Entry i is the weight of Label(i): zero excludes the label, any
// positive value keeps it possible with that relative likelihood.
//
// All domains taking part in one collapse have the same length.
type Domain []uint32

// EmptyDomain returns a domain of length n with every label excluded.
func EmptyDomain(n int) Domain {
	return make(Domain, n)
}

// FullDomain returns a copy of frequencies, the domain of a vertex about
// which nothing is known yet.
func FullDomain(frequencies Domain) Domain {
	return frequencies.Clone()
}

// NewDomain returns a domain holding the given weights.
func NewDomain(weights ...uint32) Domain {
	d := make(Domain, len(weights))
	copy(d, weights)
	return d
}

// OneHot returns a domain of length n that only allows label, with
// weight one.
func OneHot(n int, label Label) Domain {
	d := EmptyDomain(n)
	d[label] = 1
	return d
}

func mustSameLength(a, b Domain) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("domain length mismatch: %d != %d", len(a), len(b)))
	}
}

// Intersect returns the elementwise minimum of a and b.
func Intersect(a, b Domain) Domain {
	mustSameLength(a, b)
	out := make(Domain, len(a))
	for i := range a {
		out[i] = min(a[i], b[i])
	}
	return out
}

// Union returns the elementwise maximum of a and b.
func Union(a, b Domain) Domain {
	mustSameLength(a, b)
	out := make(Domain, len(a))
	for i := range a {
		out[i] = max(a[i], b[i])
	}
	return out
}

// UnionInto folds src into d in place, taking the elementwise maximum.
func (d Domain) UnionInto(src Domain) {
	mustSameLength(d, src)
	for i := range src {
		if src[i] > d[i] {
			d[i] = src[i]
		}
	}
}

// IsSubset reports whether every label possible in a is also possible
// in b. Weights are not compared.
func IsSubset(a, b Domain) bool {
	mustSameLength(a, b)
	for i := range a {
		if a[i] > 0 && b[i] == 0 {
			return false
		}
	}
	return true
}

// Equal reports whether a and b are bit-identical.
func Equal(a, b Domain) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CardinalityNonZero returns the number of labels still possible.
func (d Domain) CardinalityNonZero() int {
	n := 0
	for _, w := range d {
		if w > 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no label is possible.
func (d Domain) IsEmpty() bool {
	for _, w := range d {
		if w > 0 {
			return false
		}
	}
	return true
}

// IsSingleton reports whether exactly one label is possible.
func (d Domain) IsSingleton() bool {
	return d.CardinalityNonZero() == 1
}

// SingleLabel returns the only possible label. ok is false unless the
// domain is a singleton.
func (d Domain) SingleLabel() (label Label, ok bool) {
	found := -1
	for i, w := range d {
		if w == 0 {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}
	if found < 0 {
		return 0, false
	}
	return Label(found), true
}

// Determine excludes every label except label, whose weight is kept.
func (d Domain) Determine(label Label) {
	for i := range d {
		if Label(i) != label {
			d[i] = 0
		}
	}
}

// Total returns the sum of all weights.
func (d Domain) Total() uint64 {
	var total uint64
	for _, w := range d {
		total += uint64(w)
	}
	return total
}

// Entropy returns the Shannon entropy (natural log) of the domain's
// weights normalized to probabilities. Singleton and empty domains have
// zero entropy.
func (d Domain) Entropy() float64 {
	total := float64(d.Total())
	if total == 0 {
		return 0
	}
	var h float64
	for _, w := range d {
		if w == 0 {
			continue
		}
		p := float64(w) / total
		h -= p * math.Log(p)
	}
	return h
}

// Clone returns an independent copy of d.
func (d Domain) Clone() Domain {
	if d == nil {
		return nil
	}
	out := make(Domain, len(d))
	copy(out, d)
	return out
}

func (d Domain) String() string {
	s := make([]string, len(d))
	for i, w := range d {
		s[i] = fmt.Sprint(w)
	}
	return "[" + strings.Join(s, " ") + "]"
}
