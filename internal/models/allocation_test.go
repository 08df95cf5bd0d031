package models

import (
	"testing"
	"time"
)

func TestSetAdultsClamps(t *testing.T) {
	a := NewRoomAllocation()
	a.SetAdults(-5)
	if a.Adults != 1 {
		t.Fatalf("adults should clamp at 1, got %d", a.Adults)
	}
	a.SetAdults(100)
	if a.Adults != MaxAdults {
		t.Fatalf("adults should clamp at %d, got %d", MaxAdults, a.Adults)
	}
}

func TestSetChildrenTailSemantics(t *testing.T) {
	a := NewRoomAllocation()
	a.SetChildren(2)
	if a.Children != 2 || len(a.ChildrenAges) != 2 {
		t.Fatalf("expected 2 children with 2 ages, got %d/%d", a.Children, len(a.ChildrenAges))
	}
	if a.ChildrenAges[0] != DefaultChildAge || a.ChildrenAges[1] != DefaultChildAge {
		t.Fatalf("new ages must default to %d, got %v", DefaultChildAge, a.ChildrenAges)
	}

	a.SetChildAge(0, 3)
	a.SetChildAge(1, 12)

	// decrease pops from the tail, never an arbitrary index
	a.SetChildren(-1)
	if a.Children != 1 || len(a.ChildrenAges) != 1 {
		t.Fatalf("expected 1 child with 1 age, got %d/%d", a.Children, len(a.ChildrenAges))
	}
	if a.ChildrenAges[0] != 3 {
		t.Fatalf("tail pop should keep the first age 3, got %d", a.ChildrenAges[0])
	}

	// increase appends at the tail
	a.SetChildren(1)
	if a.ChildrenAges[0] != 3 || a.ChildrenAges[1] != DefaultChildAge {
		t.Fatalf("tail append should keep existing ages, got %v", a.ChildrenAges)
	}

	a.SetChildren(10)
	if a.Children != MaxChildren || len(a.ChildrenAges) != MaxChildren {
		t.Fatalf("children should clamp at %d, got %d", MaxChildren, a.Children)
	}
}

func TestActiveAllocationsKeepOriginalIndex(t *testing.T) {
	req := &SearchRequest{
		Allocations: []RoomAllocation{
			{Adults: 2, ChildrenAges: []uint{}},
			{Adults: 0, ChildrenAges: []uint{}},
			{Adults: 1, Children: 1, ChildrenAges: []uint{7}},
		},
	}
	active := req.ActiveAllocations()
	if len(active) != 2 {
		t.Fatalf("expected 2 active allocations, got %d", len(active))
	}
	if active[0].Index != 0 || active[1].Index != 2 {
		t.Fatalf("deactivating room 1 must not shift room 2, got indices %d/%d", active[0].Index, active[1].Index)
	}
}

func TestValidateRejectsMalformedRequests(t *testing.T) {
	base := func() *SearchRequest {
		return &SearchRequest{
			Destinations: []DestinationRef{{ID: "9", Name: "Bansko", Kind: KindCity}},
			CheckIn:      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			CheckOut:     time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
			Allocations:  []RoomAllocation{{Adults: 2, ChildrenAges: []uint{}}},
			Nationality:  "RS",
			Kind:         SearchHotel,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	r := base()
	r.Destinations = nil
	if err := r.Validate(); err == nil {
		t.Fatal("zero destinations must fail")
	}

	r = base()
	r.CheckOut = r.CheckIn
	if err := r.Validate(); err == nil {
		t.Fatal("checkout == checkin must fail")
	}

	r = base()
	r.Allocations[0].Children = 2 // ages slice stays empty
	if err := r.Validate(); err == nil {
		t.Fatal("ages/children mismatch must fail")
	}

	r = base()
	r.Allocations = []RoomAllocation{{Adults: 0, ChildrenAges: []uint{}}}
	if err := r.Validate(); err == nil {
		t.Fatal("no active rooms must fail")
	}

	r = base()
	r.Nationality = "Serbia"
	if err := r.Validate(); err == nil {
		t.Fatal("non-ISO nationality must fail")
	}
}
