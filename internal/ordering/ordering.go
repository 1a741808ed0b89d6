package ordering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vitebski/josaa-predictor/internal/classify"
	"github.com/yourbasic/graph"
)

// ErrCyclicOrder is returned when ordering chains contradict each other
var ErrCyclicOrder = errors.New("cyclic ordering")

// Order assigns each listed name its position; lookups are case-folded
type Order struct {
	names    []string
	position map[string]int
}

// NewOrder builds an order from names, best first. Repeated names keep their
// first position.
func NewOrder(names []string) *Order {
	o := &Order{position: make(map[string]int)}
	for _, name := range names {
		key := classify.Fold(name)
		if key == "" {
			continue
		}
		if _, seen := o.position[key]; seen {
			continue
		}
		o.position[key] = len(o.names)
		o.names = append(o.names, name)
	}
	return o
}

// Position returns the zero-based position of name
func (o *Order) Position(name string) (int, bool) {
	pos, ok := o.position[classify.Fold(name)]
	return pos, ok
}

// Rank is Position with unlisted names placed after every listed one
func (o *Order) Rank(name string) int {
	if pos, ok := o.Position(name); ok {
		return pos
	}
	return len(o.names)
}

// Len returns the number of listed names
func (o *Order) Len() int {
	return len(o.names)
}

// Names returns the listed names in order
func (o *Order) Names() []string {
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

// MergeChains merges several best-first chains into one order. Each chain only
// constrains its own members: every name is placed after its predecessor in
// each chain it appears in. Contradicting chains yield ErrCyclicOrder.
func MergeChains(chains [][]string) (*Order, error) {
	index := make(map[string]int)
	var names []string
	var cleaned [][]int

	for _, chain := range chains {
		var vertices []int
		for _, name := range chain {
			key := classify.Fold(name)
			if key == "" {
				continue
			}
			v, ok := index[key]
			if !ok {
				v = len(names)
				index[key] = v
				names = append(names, strings.TrimSpace(name))
			}
			vertices = append(vertices, v)
		}
		cleaned = append(cleaned, vertices)
	}

	g := graph.New(len(names))
	for _, vertices := range cleaned {
		for i := 1; i < len(vertices); i++ {
			if vertices[i-1] == vertices[i] {
				continue
			}
			g.Add(vertices[i-1], vertices[i])
		}
	}

	// Sort gives an immutable graph with ordered neighbours, so the merge is
	// deterministic for a given input.
	sorted, ok := graph.TopSort(graph.Sort(g))
	if !ok {
		return nil, fmt.Errorf("%w: prestige chains contradict each other", ErrCyclicOrder)
	}

	ordered := make([]string, len(sorted))
	for i, v := range sorted {
		ordered[i] = names[v]
	}
	return NewOrder(ordered), nil
}
