// Package violation implements the insertion-ordered violation map that
// forward amortization populates and backward amortization consumes.
//
// The ordering discipline mirrors the teacher lineage's reorderer
// (cursor plus side map keyed by event index): because a location's
// events are always visited in increasing local-index order, a plain map
// keyed by index plus a recorded insertion sequence is sufficient to
// reconstruct "the order violations were discovered in", without needing
// a tree-based ordered map.
package violation

// Map is an insertion-ordered mapping from an event's local index to the
// pre-correction (internal-amortization-only) timestamp forward
// amortization computed for it.
type Map struct {
	order  []int
	values map[int]float64
}

// New returns an empty violation map.
func New() *Map {
	return &Map{values: make(map[int]float64)}
}

// Insert records that the event at localIndex is a violating receive,
// with internalV as its pre-correction timestamp. Re-inserting the same
// index (e.g. a restarted pass) overwrites the value without duplicating
// its position in iteration order.
func (m *Map) Insert(localIndex int, internalV float64) {
	if _, exists := m.values[localIndex]; !exists {
		m.order = append(m.order, localIndex)
	}
	m.values[localIndex] = internalV
}

// Lookup returns the recorded pre-correction timestamp for localIndex and
// whether it was present.
func (m *Map) Lookup(localIndex int) (float64, bool) {
	v, ok := m.values[localIndex]
	return v, ok
}

// Len returns the number of violations recorded.
func (m *Map) Len() int { return len(m.order) }

// Clear empties the map in place, for reuse at the start of a new forward
// pass (spec.md §3 Lifecycle: "The violation map is cleared at the start
// of each forward pass").
func (m *Map) Clear() {
	m.order = m.order[:0]
	for k := range m.values {
		delete(m.values, k)
	}
}

// Indices returns the recorded local indices in insertion order.
func (m *Map) Indices() []int {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}
