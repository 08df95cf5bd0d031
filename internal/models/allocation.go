package models

const (
	// MaxAdults caps a single room's adult count.
	MaxAdults = 10
	// MaxChildren caps a single room's child count.
	MaxChildren = 4
	// DefaultChildAge is appended when a child is added without an explicit age.
	DefaultChildAge = 7
	// MaxChildAge is the oldest age still counted as a child.
	MaxChildAge = 17
)

// RoomAllocation describes one requested room: its adults, children and the
// children's ages. Invariant: len(ChildrenAges) == Children at all times.
// An allocation with Adults == 0 is an unused slot and takes no part in
// search or pricing, but it keeps its position in the request.
type RoomAllocation struct {
	Adults       uint   `json:"adults"`
	Children     uint   `json:"children"`
	ChildrenAges []uint `json:"children_ages"`
}

// NewRoomAllocation returns the default active room (two adults).
func NewRoomAllocation() RoomAllocation {
	return RoomAllocation{Adults: 2, Children: 0, ChildrenAges: []uint{}}
}

// SetAdults applies delta to the adult count, clamped to [1, MaxAdults].
// An active room never drops below one adult.
func (a *RoomAllocation) SetAdults(delta int) {
	n := int(a.Adults) + delta
	if n < 1 {
		n = 1
	}
	if n > MaxAdults {
		n = MaxAdults
	}
	a.Adults = uint(n)
}

// SetChildren applies delta to the child count, clamped to [0, MaxChildren].
// Growing appends DefaultChildAge at the tail; shrinking pops from the tail.
func (a *RoomAllocation) SetChildren(delta int) {
	n := int(a.Children) + delta
	if n < 0 {
		n = 0
	}
	if n > MaxChildren {
		n = MaxChildren
	}
	for len(a.ChildrenAges) < n {
		a.ChildrenAges = append(a.ChildrenAges, DefaultChildAge)
	}
	if len(a.ChildrenAges) > n {
		a.ChildrenAges = a.ChildrenAges[:n]
	}
	a.Children = uint(n)
}

// SetChildAge updates a single child's age in place. Out-of-range indices
// and ages are ignored.
func (a *RoomAllocation) SetChildAge(idx int, age uint) {
	if idx < 0 || idx >= len(a.ChildrenAges) || age > MaxChildAge {
		return
	}
	a.ChildrenAges[idx] = age
}

// Active reports whether this room takes part in search and pricing.
func (a RoomAllocation) Active() bool { return a.Adults > 0 }

// Occupants is the total headcount of the room.
func (a RoomAllocation) Occupants() uint { return a.Adults + a.Children }

// IndexedAllocation pairs an active allocation with its original position in
// the request. The original index, not the filtered position, is the
// matching key used everywhere downstream.
type IndexedAllocation struct {
	Index int
	Alloc RoomAllocation
}
