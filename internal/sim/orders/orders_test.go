package orders

import (
	"errors"
	"testing"

	"railcraft.ai/internal/sim/ids"
)

func stop(id string) MovementOrder {
	return MovementOrder{GoTo: ids.StationID(id), Action: DefaultAction()}
}

func TestRotation(t *testing.T) {
	m := New(stop("B1"), stop("B2"), stop("B3"))
	want := []string{"B1", "B2", "B3", "B1"}
	for i, w := range want {
		if got := string(m.CurrentOrder().GoTo); got != w {
			t.Fatalf("step %d: %s want %s", i, got, w)
		}
		m.AdvanceToNextOrder()
	}
}

func TestRemoveKeepsCurrent(t *testing.T) {
	m := New(stop("B1"), stop("B2"), stop("B3"))
	m.AdvanceToNextOrder()
	m.AdvanceToNextOrder() // at B3
	if err := m.Remove(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.CurrentOrder().GoTo != "B3" {
		t.Fatalf("current=%s", m.CurrentOrder().GoTo)
	}
	if err := m.Remove(1); err != nil {
		t.Fatalf("remove current: %v", err)
	}
	if m.CurrentOrder().GoTo != "B2" || m.Next != 0 {
		t.Fatalf("after removing current: %s next=%d", m.CurrentOrder().GoTo, m.Next)
	}
	if err := m.Remove(0); !errors.Is(err, ErrEmpty) {
		t.Fatalf("removing last order: %v", err)
	}
	if err := m.Remove(4); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("out of range: %v", err)
	}
}

func TestFromSliceAndStations(t *testing.T) {
	if _, err := FromSlice(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty slice: %v", err)
	}
	m, err := FromSlice([]MovementOrder{stop("B1"), stop("B2"), stop("B1")})
	if err != nil {
		t.Fatalf("from slice: %v", err)
	}
	st := m.Stations()
	if len(st) != 2 || st[0] != "B1" || st[1] != "B2" {
		t.Fatalf("stations=%v", st)
	}
	c := m.Clone()
	c.Push(stop("B9"))
	c.SetForceStop(true)
	if m.Len() != 3 || m.ForceStop {
		t.Fatalf("clone shares state")
	}
}
