// Package scheduler implements a deterministic, time-ordered event queue:
// a min-heap keyed by (scheduled_time, monotonic_sequence_number), plus the
// single seeded RNG every stochastic decision in the simulation goes
// through.
package scheduler

import (
	"container/heap"
	"math/rand"
)

// Event is anything the scheduler can queue: given the world and the
// scheduler itself (for rescheduling and RNG access), it mutates world
// state and returns follow-up events to enqueue.
//
// World is left as interface{} here to avoid an import cycle between
// scheduler and entities — concrete event implementations in package
// events assert it to *entities.WorldState.
type Event interface {
	Process(world interface{}, sched *Scheduler) ([]ScheduledEvent, error)
	Description() string
}

// ScheduledEvent pairs an event with its absolute scheduled time.
type ScheduledEvent struct {
	Event Event
	Time  float64
}

// heapItem is the internal heap element, carrying the tie-breaking
// sequence number.
type heapItem struct {
	time     float64
	sequence int64
	event    Event
}

type eventHeap []*heapItem

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].sequence < h[j].sequence
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*heapItem))
}
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler is a min-heap event queue with a seeded RNG and a per-scheduler
// monotonic sequence counter, resettable between runs so that identical
// seed+config reproduce an identical event sequence.
type Scheduler struct {
	heap     eventHeap
	sequence int64
	maxTime  float64
	rng      *rand.Rand
}

// New constructs a scheduler bounded by maxTime and seeded by seed.
func New(maxTime float64, seed int64) *Scheduler {
	s := &Scheduler{
		maxTime: maxTime,
		rng:     rand.New(rand.NewSource(seed)),
	}
	heap.Init(&s.heap)
	return s
}

// ResetSequence resets the monotonic sequence counter to zero. Call this at
// the start of each run for reproducibility.
func (s *Scheduler) ResetSequence() {
	s.sequence = 0
}

// MaxTime returns the configured soft completion boundary.
func (s *Scheduler) MaxTime() float64 {
	return s.maxTime
}

// RNG returns the single seeded pseudo-random generator for this run. Every
// stochastic decision in the simulation must go through this instance.
func (s *Scheduler) RNG() *rand.Rand {
	return s.rng
}

// Schedule enqueues an event at the given absolute time.
func (s *Scheduler) Schedule(event Event, time float64) {
	heap.Push(&s.heap, &heapItem{time: time, sequence: s.sequence, event: event})
	s.sequence++
}

// ScheduleMany enqueues several (event, time) pairs.
func (s *Scheduler) ScheduleMany(events []ScheduledEvent) {
	for _, se := range events {
		s.Schedule(se.Event, se.Time)
	}
}

// Pop removes and returns the earliest-scheduled event, or false if empty.
func (s *Scheduler) Pop() (ScheduledEvent, bool) {
	if s.heap.Len() == 0 {
		return ScheduledEvent{}, false
	}
	item := heap.Pop(&s.heap).(*heapItem)
	return ScheduledEvent{Event: item.event, Time: item.time}, true
}

// PeekTime returns the next event's scheduled time, or false if empty.
func (s *Scheduler) PeekTime() (float64, bool) {
	if s.heap.Len() == 0 {
		return 0, false
	}
	return s.heap[0].time, true
}

// IsEmpty reports whether the queue holds no events.
func (s *Scheduler) IsEmpty() bool {
	return s.heap.Len() == 0
}

// Clear empties the queue without resetting the sequence counter.
func (s *Scheduler) Clear() {
	s.heap = s.heap[:0]
}

// PendingCount returns the number of queued events.
func (s *Scheduler) PendingCount() int {
	return s.heap.Len()
}
