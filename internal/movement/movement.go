// Package movement implements the pluggable "where next?" strategies for
// free-roaming scooters and the separate "how to approach a target
// station?" behavior used once a scooter is traveling to swap batteries.
package movement

import (
	"math/rand"

	"scooterswap/internal/entities"
)

// RandomWalk uniformly samples one of the scooter's 4-connected neighbors.
// This is the default movement strategy.
type RandomWalk struct{}

// NewRandomWalk constructs a RandomWalk strategy.
func NewRandomWalk() *RandomWalk { return &RandomWalk{} }

func (r *RandomWalk) Name() string { return "random_walk" }

func (r *RandomWalk) GetNextDestination(s *entities.Scooter, w *entities.WorldState, rng *rand.Rand) entities.Position {
	neighbors := s.Position.Neighbors(w.GridWidth, w.GridHeight)
	if len(neighbors) == 0 {
		return s.Position
	}
	idx := rng.Intn(len(neighbors))
	return neighbors[idx]
}

func (r *RandomWalk) OnScooterActivated(s *entities.Scooter, w *entities.WorldState, rng *rand.Rand) {
}

// Directed maintains an externally-assigned destination per scooter (e.g.
// a ride-sharing dispatch system). A scooter with no destination delegates
// to an optional idle behavior, or stays in place.
type Directed struct {
	destinations map[string]entities.Position
	idleBehavior entities.MovementStrategy
}

// NewDirected constructs an empty Directed strategy.
func NewDirected() *Directed {
	return &Directed{destinations: make(map[string]entities.Position)}
}

func (d *Directed) Name() string { return "directed" }

// SetIdleBehavior sets the fallback strategy used when a scooter has no
// assigned destination.
func (d *Directed) SetIdleBehavior(fallback entities.MovementStrategy) {
	d.idleBehavior = fallback
}

// SetDestination assigns a destination to a scooter.
func (d *Directed) SetDestination(scooterID string, destination entities.Position) {
	d.destinations[scooterID] = destination
}

// ClearDestination clears a scooter's assigned destination.
func (d *Directed) ClearDestination(scooterID string) {
	delete(d.destinations, scooterID)
}

// Destination returns a scooter's currently assigned destination, if any.
func (d *Directed) Destination(scooterID string) (entities.Position, bool) {
	p, ok := d.destinations[scooterID]
	return p, ok
}

// HasDestination reports whether a scooter has an assigned destination.
func (d *Directed) HasDestination(scooterID string) bool {
	_, ok := d.destinations[scooterID]
	return ok
}

func (d *Directed) GetNextDestination(s *entities.Scooter, w *entities.WorldState, rng *rand.Rand) entities.Position {
	target, ok := d.destinations[s.ID]
	if !ok {
		if d.idleBehavior != nil {
			return d.idleBehavior.GetNextDestination(s, w, rng)
		}
		return s.Position
	}

	current := s.Position
	if current == target {
		d.ClearDestination(s.ID)
		if d.idleBehavior != nil {
			return d.idleBehavior.GetNextDestination(s, w, rng)
		}
		return current
	}
	return greedyStep(current, target)
}

func (d *Directed) OnScooterActivated(s *entities.Scooter, w *entities.WorldState, rng *rand.Rand) {
}

// Greedy is the built-in StationSeekingBehavior: it takes one step reducing
// dx first, then dy, with no obstacle avoidance.
type Greedy struct{}

// NewGreedy constructs a Greedy station-seeking behavior.
func NewGreedy() *Greedy { return &Greedy{} }

func (g *Greedy) GetNextStepTowardStation(s *entities.Scooter, w *entities.WorldState) entities.Position {
	if s.TargetPosition == nil {
		return s.Position
	}
	return greedyStep(s.Position, *s.TargetPosition)
}

func greedyStep(current, target entities.Position) entities.Position {
	dx := target.X - current.X
	dy := target.Y - current.Y
	switch {
	case dx != 0:
		if dx > 0 {
			return entities.Position{X: current.X + 1, Y: current.Y}
		}
		return entities.Position{X: current.X - 1, Y: current.Y}
	case dy != 0:
		if dy > 0 {
			return entities.Position{X: current.X, Y: current.Y + 1}
		}
		return entities.Position{X: current.X, Y: current.Y - 1}
	default:
		return current
	}
}
