package wfc

import "sort"

// RuleKey selects one entry of Rules.
type RuleKey struct {
	Direction Direction
	Label     Label
}

// Rules maps (direction, label) to the labels a neighbor in that
// direction may take. A missing key places no constraint on the
// neighbor. Rules are built once, by Graph.Rules or by hand, and must
// not be modified while a collapse is using them.
type Rules map[RuleKey]Domain

// Lookup returns the domain allowed next to label in direction d.
func (r Rules) Lookup(d Direction, label Label) (Domain, bool) {
	allowed, ok := r[RuleKey{Direction: d, Label: label}]
	return allowed, ok
}

// Keys returns the rule keys ordered by direction, then label.
func (r Rules) Keys() []RuleKey {
	keys := make([]RuleKey, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Direction != keys[j].Direction {
			return keys[i].Direction < keys[j].Direction
		}
		return keys[i].Label < keys[j].Label
	})
	return keys
}

// Constraint returns the labels a neighbor in direction d may take
// given that the source vertex may still take any label of from. It is
// the union of the rules of every possible source label; labels without
// a rule contribute nothing.
//
// Shrinking from can only shrink the result.
func (r Rules) Constraint(from Domain, d Direction) Domain {
	out := EmptyDomain(len(from))
	for l, w := range from {
		if w == 0 {
			continue
		}
		if allowed, ok := r.Lookup(d, Label(l)); ok {
			out.UnionInto(allowed)
		}
	}
	return out
}
