package cargo

import "fmt"

type Phase uint8

const (
	NotStarted Phase = iota
	Unloading
	Loading
	Finished
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "NOT_STARTED"
	case Unloading:
		return "UNLOADING"
	case Loading:
		return "LOADING"
	case Finished:
		return "FINISHED"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Exchange is the station-side view a transport trades cargo with. Plan*
// calls must not mutate anything; Apply* performs the transfer and returns
// what actually moved.
type Exchange interface {
	PlanUnload() Map
	ApplyUnload(Map) Map
	PlanLoad(exclude Set) Map
	ApplyLoad(Map) Map
}

// Policy says which phases run at this stop.
type Policy struct {
	Unload bool
	Load   bool
}

// Timing converts an amount to a phase duration in simulated seconds.
type Timing struct {
	BaseSeconds         float64
	ThroughputPerSecond float64
}

func DefaultTiming() Timing { return Timing{BaseSeconds: 1.0} }

func (t Timing) Duration(amount float64) float64 {
	d := t.BaseSeconds
	if t.ThroughputPerSecond > 0 {
		d += amount / t.ThroughputPerSecond
	}
	if d <= 0 {
		// Every phase that moves cargo takes some time.
		d = 1e-3
	}
	return d
}

// State is the per-transport loading state machine:
// NotStarted -> Unloading -> Loading -> Finished -> NotStarted.
type State struct {
	Phase      Phase   `json:"phase"`
	TimeNeeded float64 `json:"time_needed,omitempty"`
	TimeSpent  float64 `json:"time_spent,omitempty"`
	Pending    Map     `json:"pending,omitempty"`
	Unloaded   Set     `json:"-"`
}

func (s *State) Finished() bool { return s.Phase == Finished }

// ConsumeFinished resets a Finished state to NotStarted and reports whether
// it did, so one stop's state never carries into the next stop.
func (s *State) ConsumeFinished() bool {
	if s.Phase != Finished {
		return false
	}
	*s = State{}
	return true
}

// Step spends up to delta seconds on the current phase and returns the
// delta left over. Phase changes that take no time (skipped unload, nothing
// to load) happen within the same call.
func (s *State) Step(delta float64, policy Policy, ex Exchange, timing Timing) float64 {
	for {
		switch s.Phase {
		case NotStarted:
			s.Unloaded = nil
			if policy.Unload {
				if plan := ex.PlanUnload(); !plan.IsEmpty() {
					s.begin(Unloading, plan, timing)
					continue
				}
			}
			s.beginLoading(policy, ex, timing)
			continue

		case Unloading:
			delta = s.spend(delta)
			if s.TimeSpent < s.TimeNeeded {
				return delta
			}
			moved := ex.ApplyUnload(s.Pending)
			s.Unloaded = NewSet(moved.SortedKeys()...)
			s.beginLoading(policy, ex, timing)
			continue

		case Loading:
			delta = s.spend(delta)
			if s.TimeSpent < s.TimeNeeded {
				return delta
			}
			ex.ApplyLoad(s.Pending)
			s.Phase = Finished
			s.Pending = nil
			s.TimeNeeded, s.TimeSpent = 0, 0
			return delta

		default:
			return delta
		}
	}
}

func (s *State) begin(p Phase, plan Map, timing Timing) {
	s.Phase = p
	s.Pending = plan
	s.TimeNeeded = timing.Duration(plan.Total())
	s.TimeSpent = 0
}

func (s *State) beginLoading(policy Policy, ex Exchange, timing Timing) {
	if policy.Load {
		exclude := s.Unloaded
		if exclude == nil {
			exclude = Set{}
		}
		if plan := ex.PlanLoad(exclude); !plan.IsEmpty() {
			s.begin(Loading, plan, timing)
			return
		}
	}
	s.Phase = Finished
	s.Pending = nil
	s.TimeNeeded, s.TimeSpent = 0, 0
}

func (s *State) spend(delta float64) float64 {
	left := s.TimeNeeded - s.TimeSpent
	if delta >= left {
		s.TimeSpent = s.TimeNeeded
		return delta - left
	}
	s.TimeSpent += delta
	return 0
}
