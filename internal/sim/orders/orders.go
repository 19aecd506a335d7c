// Package orders holds a transport's circular itinerary.
package orders

import (
	"errors"
	"fmt"

	"railcraft.ai/internal/sim/ids"
)

var (
	ErrEmpty      = errors.New("movement orders need at least one order")
	ErrOutOfRange = errors.New("order index out of range")
)

type UnloadPolicy uint8

const (
	UnloadAll UnloadPolicy = iota
	NoUnload
)

type LoadPolicy uint8

const (
	LoadAvailable LoadPolicy = iota
	NoLoad
)

// Action is what the transport does with cargo when it reaches the stop.
type Action struct {
	Unload UnloadPolicy `json:"unload"`
	Load   LoadPolicy   `json:"load"`
}

func DefaultAction() Action { return Action{Unload: UnloadAll, Load: LoadAvailable} }

type MovementOrder struct {
	GoTo   ids.StationID `json:"go_to"`
	Action Action        `json:"action"`
}

func (o MovementOrder) String() string { return fmt.Sprintf("->%s", o.GoTo) }

// MovementOrders is a non-empty ring of stops. Next points at the order being
// pursued.
type MovementOrders struct {
	Orders    []MovementOrder `json:"orders"`
	Next      int             `json:"next"`
	ForceStop bool            `json:"force_stop"`
}

func New(first MovementOrder, rest ...MovementOrder) *MovementOrders {
	m := &MovementOrders{Orders: make([]MovementOrder, 0, 1+len(rest))}
	m.Orders = append(m.Orders, first)
	m.Orders = append(m.Orders, rest...)
	return m
}

// FromSlice validates a replacement order list.
func FromSlice(os []MovementOrder) (*MovementOrders, error) {
	if len(os) == 0 {
		return nil, ErrEmpty
	}
	return New(os[0], os[1:]...), nil
}

func (m *MovementOrders) Len() int { return len(m.Orders) }

func (m *MovementOrders) CurrentOrder() MovementOrder { return m.Orders[m.Next] }

func (m *MovementOrders) AdvanceToNextOrder() {
	m.Next = (m.Next + 1) % len(m.Orders)
}

func (m *MovementOrders) Push(o MovementOrder) { m.Orders = append(m.Orders, o) }

// Remove drops the order at idx. The pursued order stays the same unless it
// is the one removed, in which case the following order is pursued.
func (m *MovementOrders) Remove(idx int) error {
	if idx < 0 || idx >= len(m.Orders) {
		return fmt.Errorf("remove %d of %d: %w", idx, len(m.Orders), ErrOutOfRange)
	}
	if len(m.Orders) == 1 {
		return ErrEmpty
	}
	m.Orders = append(m.Orders[:idx], m.Orders[idx+1:]...)
	if idx < m.Next {
		m.Next--
	}
	if m.Next >= len(m.Orders) {
		m.Next = 0
	}
	return nil
}

func (m *MovementOrders) SetForceStop(v bool) { m.ForceStop = v }

// Stations lists the distinct stations in itinerary order.
func (m *MovementOrders) Stations() []ids.StationID {
	seen := map[ids.StationID]bool{}
	var out []ids.StationID
	for _, o := range m.Orders {
		if !seen[o.GoTo] {
			seen[o.GoTo] = true
			out = append(out, o.GoTo)
		}
	}
	return out
}

func (m *MovementOrders) Clone() *MovementOrders {
	c := *m
	c.Orders = append([]MovementOrder(nil), m.Orders...)
	return &c
}
