// Package cargo holds resource amounts and the timed unload/load state
// machine a transport runs while stopped at a station.
package cargo

import (
	"fmt"
	"sort"
)

type ResourceType string

const (
	Coal    ResourceType = "COAL"
	IronOre ResourceType = "IRON_ORE"
	Steel   ResourceType = "STEEL"
	Grain   ResourceType = "GRAIN"
	Food    ResourceType = "FOOD"
	Wood    ResourceType = "WOOD"
	Goods   ResourceType = "GOODS"
)

var knownResources = []ResourceType{Coal, IronOre, Steel, Grain, Food, Wood, Goods}

func AllResources() []ResourceType {
	out := make([]ResourceType, len(knownResources))
	copy(out, knownResources)
	return out
}

func ParseResource(s string) (ResourceType, error) {
	for _, r := range knownResources {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

// Map is an amount per resource. Zero and negative entries are treated as
// absent.
type Map map[ResourceType]float64

func (m Map) Get(r ResourceType) float64 {
	if m == nil {
		return 0
	}
	return m[r]
}

func (m Map) Add(r ResourceType, amount float64) {
	if amount == 0 {
		return
	}
	m[r] += amount
	if m[r] <= 1e-9 {
		delete(m, r)
	}
}

// AddAll adds every entry of o to m.
func (m Map) AddAll(o Map) {
	for _, r := range o.SortedKeys() {
		m.Add(r, o[r])
	}
}

// Take removes up to amount of r and returns how much was removed.
func (m Map) Take(r ResourceType, amount float64) float64 {
	have := m.Get(r)
	if have <= 0 || amount <= 0 {
		return 0
	}
	if amount > have {
		amount = have
	}
	m.Add(r, -amount)
	return amount
}

func (m Map) Total() float64 {
	var sum float64
	for _, r := range m.SortedKeys() {
		sum += m[r]
	}
	return sum
}

func (m Map) IsEmpty() bool { return m.Total() <= 0 }

// SortedKeys returns the resources with a positive amount in name order.
func (m Map) SortedKeys() []ResourceType {
	if len(m) == 0 {
		return nil
	}
	out := make([]ResourceType, 0, len(m))
	for r, v := range m {
		if v > 0 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for r, v := range m {
		if v > 0 {
			out[r] = v
		}
	}
	return out
}

// Set is a set of resource types.
type Set map[ResourceType]struct{}

func NewSet(rs ...ResourceType) Set {
	s := make(Set, len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

func (s Set) Has(r ResourceType) bool {
	_, ok := s[r]
	return ok
}

func (s Set) Sorted() []ResourceType {
	out := make([]ResourceType, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
