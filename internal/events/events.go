// Package events implements the nine event kinds that drive the
// simulation: each mutates a *entities.WorldState and returns follow-up
// events for the scheduler to enqueue. Events do not touch the scheduler's
// RNG directly except via scheduler.Scheduler.RNG().
package events

import (
	"fmt"

	"scooterswap/internal/activity"
	"scooterswap/internal/entities"
	"scooterswap/internal/movement"
	"scooterswap/internal/scheduler"
)

var (
	defaultMovementStrategy entities.MovementStrategy      = movement.NewRandomWalk()
	defaultStationSeeking   entities.StationSeekingBehavior = movement.NewGreedy()
	defaultActivityStrategy entities.ActivityStrategy      = activity.NewAlwaysActive()
)

// SwapDuration is the simulated seconds a battery swap takes end to end.
const SwapDuration = 30.0

// degenerateMoveDelay guarantees forward clock progress on a zero-distance
// move, avoiding live-lock.
const degenerateMoveDelay = 0.1

// chargingTickInterval is how often a station's charging slots advance
// displayed charge.
const chargingTickInterval = 60.0

func world(w interface{}) *entities.WorldState {
	return w.(*entities.WorldState)
}

// ScooterMoveEvent moves a scooter to a new position, consuming energy and
// checking whether a station run is now required.
type ScooterMoveEvent struct {
	ScooterID   string
	NewPosition entities.Position
}

func (e ScooterMoveEvent) Description() string {
	return fmt.Sprintf("ScooterMove(%s -> %v)", e.ScooterID, e.NewPosition)
}

func (e ScooterMoveEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	s, ok := world.GetScooter(e.ScooterID)
	if !ok {
		return nil, nil
	}

	distance := float64(s.Position.DistanceTo(e.NewPosition))
	if battery, ok := world.GetBattery(s.BatteryID); ok {
		battery.ConsumeEnergy(distance * s.ConsumptionRate)
	}
	s.DistanceToday += distance
	s.Position = e.NewPosition

	if s.State == entities.ScooterMoving {
		if battery, ok := world.GetBattery(s.BatteryID); ok && s.NeedsSwap(battery.ChargeLevel()) {
			if station := world.FindNearestStation(s.Position); station != nil {
				s.State = entities.ScooterTravelingToStation
				s.TargetStationID = station.ID
				tp := station.Position
				s.TargetPosition = &tp
			}
		}
	}

	switch s.State {
	case entities.ScooterMoving:
		return dispatchNextMove(s, world, sched), nil
	case entities.ScooterTravelingToStation:
		if s.TargetPosition != nil && s.Position == *s.TargetPosition {
			return []scheduler.ScheduledEvent{{
				Event: ScooterArriveAtStationEvent{ScooterID: s.ID, StationID: s.TargetStationID},
				Time:  world.CurrentTime,
			}}, nil
		}
		return scheduleStationSeekingStep(s, world, sched), nil
	default:
		return nil, nil
	}
}

// dispatchNextMove consults the active activity strategy and either
// schedules the next free-roam move or emits an idle transition.
func dispatchNextMove(s *entities.Scooter, world *entities.WorldState, sched *scheduler.Scheduler) []scheduler.ScheduledEvent {
	strategy := activeActivityStrategy(s, world)
	result := strategy.CheckActivity(s, world)
	switch result.Decision {
	case entities.ContinueActive:
		return scheduleRandomMove(s, world, sched)
	case entities.GoIdle:
		wake := 0.0
		if result.WakeUpTime != nil {
			wake = *result.WakeUpTime
		}
		return []scheduler.ScheduledEvent{{
			Event: ScooterGoIdleEvent{ScooterID: s.ID, WakeUpTime: wake, Reason: result.Reason},
			Time:  world.CurrentTime,
		}}
	case entities.SwapThenIdle:
		wake := 0.0
		if result.WakeUpTime != nil {
			wake = *result.WakeUpTime
		}
		return []scheduler.ScheduledEvent{{
			Event: ScooterSwapThenIdleEvent{ScooterID: s.ID, WakeUpTime: wake, Reason: result.Reason},
			Time:  world.CurrentTime,
		}}
	default:
		return nil
	}
}

func activeActivityStrategy(s *entities.Scooter, world *entities.WorldState) entities.ActivityStrategy {
	if s.GroupID != "" {
		if strategy, ok := world.GroupActivityStrategies[s.GroupID]; ok {
			return strategy
		}
	}
	if world.ActivityStrategy != nil {
		return world.ActivityStrategy
	}
	return defaultActivityStrategy
}

func activeMovementStrategy(world *entities.WorldState) entities.MovementStrategy {
	if world.MovementStrategy != nil {
		return world.MovementStrategy
	}
	return defaultMovementStrategy
}

// activeMovementStrategyFor resolves the movement strategy for a specific
// scooter, honoring a per-group override before the world default.
func activeMovementStrategyFor(s *entities.Scooter, world *entities.WorldState) entities.MovementStrategy {
	if s.GroupID != "" {
		if strategy, ok := world.GroupMovementStrategies[s.GroupID]; ok {
			return strategy
		}
	}
	return activeMovementStrategy(world)
}

func activeStationSeeking(world *entities.WorldState) entities.StationSeekingBehavior {
	if world.StationSeeking != nil {
		return world.StationSeeking
	}
	return defaultStationSeeking
}

// scheduleRandomMove asks the active movement strategy for the next
// destination and schedules the resulting ScooterMoveEvent.
func scheduleRandomMove(s *entities.Scooter, world *entities.WorldState, sched *scheduler.Scheduler) []scheduler.ScheduledEvent {
	strategy := activeMovementStrategyFor(s, world)
	next := strategy.GetNextDestination(s, world, sched.RNG())
	distance := float64(s.Position.DistanceTo(next))
	travelTime := s.TravelTime(distance)
	if travelTime <= 0 {
		travelTime = degenerateMoveDelay
	}
	return []scheduler.ScheduledEvent{{
		Event: ScooterMoveEvent{ScooterID: s.ID, NewPosition: next},
		Time:  world.CurrentTime + travelTime,
	}}
}

// scheduleStationSeekingStep asks the station-seeking behavior for the next
// step toward the target station.
func scheduleStationSeekingStep(s *entities.Scooter, world *entities.WorldState, sched *scheduler.Scheduler) []scheduler.ScheduledEvent {
	behavior := activeStationSeeking(world)
	next := behavior.GetNextStepTowardStation(s, world)
	distance := float64(s.Position.DistanceTo(next))
	travelTime := s.TravelTime(distance)
	if distance <= 0 {
		travelTime = 0
	}
	return []scheduler.ScheduledEvent{{
		Event: ScooterMoveEvent{ScooterID: s.ID, NewPosition: next},
		Time:  world.CurrentTime + travelTime,
	}}
}

// ScooterArriveAtStationEvent fires when a scooter reaches its target
// station while TRAVELING_TO_STATION. If the station has no battery to take
// or no empty slot, the scooter becomes WAITING_FOR_BATTERY and only a
// BatteryFullyChargedEvent at that station wakes it; with no battery
// charging there, it waits indefinitely.
type ScooterArriveAtStationEvent struct {
	ScooterID string
	StationID string
}

func (e ScooterArriveAtStationEvent) Description() string {
	return fmt.Sprintf("ScooterArriveAtStation(%s @ %s)", e.ScooterID, e.StationID)
}

func (e ScooterArriveAtStationEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	s, ok := world.GetScooter(e.ScooterID)
	if !ok {
		return nil, nil
	}
	station, ok := world.GetStation(e.StationID)
	if !ok {
		return nil, nil
	}

	takeSlot := station.BestBatterySlot(world.Batteries)
	depositSlot := station.FirstEmptySlot()
	if takeSlot < 0 || depositSlot < 0 {
		s.State = entities.ScooterWaitingForBattery
		if world.Metrics != nil {
			world.Metrics.RecordNoBatteryMiss(world.CurrentTime, s.ID, station.ID)
		}
		return nil, nil
	}

	s.State = entities.ScooterSwapping
	return []scheduler.ScheduledEvent{{
		Event: BatterySwapEvent{
			ScooterID:     s.ID,
			StationID:     station.ID,
			TakeFromSlot:  takeSlot,
			DepositToSlot: depositSlot,
		},
		Time: world.CurrentTime + SwapDuration,
	}}, nil
}

// BatterySwapEvent executes the atomic battery exchange at the end of the
// swap duration.
type BatterySwapEvent struct {
	ScooterID     string
	StationID     string
	TakeFromSlot  int
	DepositToSlot int
}

func (e BatterySwapEvent) Description() string {
	return fmt.Sprintf("BatterySwap(%s @ %s)", e.ScooterID, e.StationID)
}

func (e BatterySwapEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	s, ok := world.GetScooter(e.ScooterID)
	if !ok {
		return nil, nil
	}
	station, ok := world.GetStation(e.StationID)
	if !ok {
		return nil, nil
	}

	takeSlot := station.Slot(e.TakeFromSlot)
	depositSlot := station.Slot(e.DepositToSlot)
	if takeSlot == nil || takeSlot.Empty() || depositSlot == nil || !depositSlot.Empty() {
		// Stale slot selection — another scooter got there first. Re-select.
		newTake := station.BestBatterySlot(world.Batteries)
		newDeposit := station.FirstEmptySlot()
		if newTake < 0 || newDeposit < 0 {
			s.State = entities.ScooterWaitingForBattery
			if world.Metrics != nil {
				world.Metrics.RecordNoBatteryMiss(world.CurrentTime, s.ID, station.ID)
			}
			return nil, nil
		}
		takeSlot = station.Slot(newTake)
		depositSlot = station.Slot(newDeposit)
	}

	oldBattery, ok := world.GetBattery(s.BatteryID)
	if !ok {
		return nil, nil
	}
	newBattery, ok := world.GetBattery(takeSlot.BatteryID)
	if !ok {
		return nil, nil
	}

	oldLevel := oldBattery.ChargeLevel()
	newLevel := newBattery.ChargeLevel()

	// Old battery: scooter -> deposit slot, begins charging.
	oldBattery.PlaceInStation(station.ID, depositSlot.Index)
	depositSlot.BatteryID = oldBattery.ID
	depositSlot.IsCharging = true

	// New battery: take slot -> scooter.
	newBattery.PlaceInScooter(s.ID)
	takeSlot.BatteryID = ""
	takeSlot.IsCharging = false

	s.BatteryID = newBattery.ID
	s.State = entities.ScooterMoving
	s.TargetStationID = ""
	s.TargetPosition = nil

	if world.Metrics != nil {
		world.Metrics.RecordSwap(world.CurrentTime, s.ID, station.ID, oldLevel, newLevel)
		if newLevel < 1-1e-4 {
			world.Metrics.RecordPartialChargeMiss(world.CurrentTime, s.ID, station.ID, newLevel)
		}
	}

	var follow []scheduler.ScheduledEvent
	if !oldBattery.IsFull() {
		follow = append(follow, scheduler.ScheduledEvent{
			Event: BatteryFullyChargedEvent{
				BatteryID: oldBattery.ID,
				StationID: station.ID,
				SlotIndex: depositSlot.Index,
			},
			Time: world.CurrentTime + oldBattery.TimeToFullCharge(station.ChargeRateKW),
		})
	}

	if s.IdleUntil != nil {
		wake := *s.IdleUntil
		s.IdleUntil = nil
		follow = append(follow, scheduler.ScheduledEvent{
			Event: ScooterGoIdleEvent{ScooterID: s.ID, WakeUpTime: wake, Reason: "post-swap idle"},
			Time:  world.CurrentTime,
		})
	} else {
		activeMovementStrategyFor(s, world).OnScooterActivated(s, world, sched.RNG())
		follow = append(follow, dispatchNextMove(s, world, sched)...)
	}
	return follow, nil
}

// BatteryChargingTickEvent periodically advances the displayed charge of
// every charging slot at a station. It never marks a battery full; only
// BatteryFullyChargedEvent does that, so exactly one "fully charged" signal
// fires per charging episode even though the tick may be coarse relative to
// the true completion curve.
type BatteryChargingTickEvent struct {
	StationID string
}

func (e BatteryChargingTickEvent) Description() string {
	return fmt.Sprintf("BatteryChargingTick(%s)", e.StationID)
}

func (e BatteryChargingTickEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	station, ok := world.GetStation(e.StationID)
	if !ok {
		return nil, nil
	}
	energyPerTick := station.ChargeRateKW * chargingTickInterval / 3600
	for i := range station.Slots {
		slot := &station.Slots[i]
		if slot.Empty() || !slot.IsCharging {
			continue
		}
		if b, ok := world.GetBattery(slot.BatteryID); ok && !b.IsFull() {
			b.AddCharge(energyPerTick)
		}
	}

	nextTick := world.CurrentTime + chargingTickInterval
	if nextTick >= sched.MaxTime() {
		return nil, nil
	}
	return []scheduler.ScheduledEvent{{
		Event: BatteryChargingTickEvent{StationID: e.StationID},
		Time:  nextTick,
	}}, nil
}

// BatteryFullyChargedEvent is the authoritative completion signal for a
// charging episode: it forces the battery to exactly capacity, clears the
// slot's charging flag, and wakes at most one waiting scooter.
type BatteryFullyChargedEvent struct {
	BatteryID string
	StationID string
	SlotIndex int
}

func (e BatteryFullyChargedEvent) Description() string {
	return fmt.Sprintf("BatteryFullyCharged(%s @ %s)", e.BatteryID, e.StationID)
}

func (e BatteryFullyChargedEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	battery, ok := world.GetBattery(e.BatteryID)
	if !ok {
		return nil, nil
	}
	battery.CurrentChargeKWh = battery.CapacityKWh
	station, ok := world.GetStation(e.StationID)
	if ok {
		if slot := station.Slot(e.SlotIndex); slot != nil {
			slot.IsCharging = false
		}
	}

	// Wake exactly one WAITING_FOR_BATTERY scooter targeting this station,
	// in creation-id order for determinism.
	for _, id := range world.ScooterOrder {
		s, ok := world.GetScooter(id)
		if !ok || s.State != entities.ScooterWaitingForBattery || s.TargetStationID != e.StationID {
			continue
		}
		depositSlot := -1
		if station != nil {
			depositSlot = station.FirstEmptySlot()
		}
		if depositSlot < 0 {
			continue
		}
		s.State = entities.ScooterSwapping
		return []scheduler.ScheduledEvent{{
			Event: BatterySwapEvent{
				ScooterID:     s.ID,
				StationID:     e.StationID,
				TakeFromSlot:  e.SlotIndex,
				DepositToSlot: depositSlot,
			},
			Time: world.CurrentTime + SwapDuration,
		}}, nil
	}
	return nil, nil
}

// ScooterGoIdleEvent transitions a scooter into IDLE until wakeUpTime.
type ScooterGoIdleEvent struct {
	ScooterID  string
	WakeUpTime float64
	Reason     string
}

func (e ScooterGoIdleEvent) Description() string {
	return fmt.Sprintf("ScooterGoIdle(%s, reason=%s)", e.ScooterID, e.Reason)
}

func (e ScooterGoIdleEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	s, ok := world.GetScooter(e.ScooterID)
	if !ok {
		return nil, nil
	}
	s.State = entities.ScooterIdle
	wake := e.WakeUpTime
	s.IdleUntil = &wake
	s.TargetStationID = ""
	s.TargetPosition = nil
	return []scheduler.ScheduledEvent{{
		Event: ScooterWakeUpEvent{ScooterID: s.ID},
		Time:  wake,
	}}, nil
}

// ScooterWakeUpEvent fires at a scooter's scheduled wake time. It may defer
// itself if the active window has not actually been reached.
type ScooterWakeUpEvent struct {
	ScooterID string
}

func (e ScooterWakeUpEvent) Description() string {
	return fmt.Sprintf("ScooterWakeUp(%s)", e.ScooterID)
}

func (e ScooterWakeUpEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	s, ok := world.GetScooter(e.ScooterID)
	if !ok || s.State != entities.ScooterIdle {
		return nil, nil
	}
	strategy := activeActivityStrategy(s, world)
	if !strategy.ShouldWakeUp(s, world, world.CurrentTime) {
		result := strategy.CheckActivity(s, world)
		if result.WakeUpTime == nil {
			return nil, nil
		}
		s.IdleUntil = result.WakeUpTime
		return []scheduler.ScheduledEvent{{
			Event: ScooterWakeUpEvent{ScooterID: s.ID},
			Time:  *result.WakeUpTime,
		}}, nil
	}
	s.State = entities.ScooterMoving
	s.IdleUntil = nil
	activeMovementStrategyFor(s, world).OnScooterActivated(s, world, sched.RNG())
	return scheduleRandomMove(s, world, sched), nil
}

// ScooterSwapThenIdleEvent routes a scooter to a station before finally
// going idle: BatterySwapEvent detects the stashed IdleUntil and emits the
// terminal ScooterGoIdleEvent once the swap completes.
type ScooterSwapThenIdleEvent struct {
	ScooterID  string
	WakeUpTime float64
	Reason     string
}

func (e ScooterSwapThenIdleEvent) Description() string {
	return fmt.Sprintf("ScooterSwapThenIdle(%s, reason=%s)", e.ScooterID, e.Reason)
}

func (e ScooterSwapThenIdleEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	s, ok := world.GetScooter(e.ScooterID)
	if !ok {
		return nil, nil
	}
	wake := e.WakeUpTime
	s.IdleUntil = &wake
	s.State = entities.ScooterTravelingToStation
	station := world.FindNearestStation(s.Position)
	if station == nil {
		return nil, nil
	}
	s.TargetStationID = station.ID
	tp := station.Position
	s.TargetPosition = &tp
	return scheduleStationSeekingStep(s, world, sched), nil
}

// DailyResetEvent fires at each simulated midnight boundary.
type DailyResetEvent struct {
	DayNumber int
}

func (e DailyResetEvent) Description() string {
	return fmt.Sprintf("DailyReset(day=%d)", e.DayNumber)
}

const secondsPerDay = 86400.0

func (e DailyResetEvent) Process(w interface{}, sched *scheduler.Scheduler) ([]scheduler.ScheduledEvent, error) {
	world := world(w)
	var follow []scheduler.ScheduledEvent
	for _, id := range world.ScooterOrder {
		s, ok := world.GetScooter(id)
		if !ok {
			continue
		}
		activeActivityStrategy(s, world).OnDayReset(s, world, e.DayNumber)
		if s.State == entities.ScooterIdle {
			strategy := activeActivityStrategy(s, world)
			if strategy.ShouldWakeUp(s, world, world.CurrentTime) {
				s.State = entities.ScooterMoving
				s.IdleUntil = nil
				activeMovementStrategyFor(s, world).OnScooterActivated(s, world, sched.RNG())
				follow = append(follow, scheduleRandomMove(s, world, sched)...)
			}
		}
	}

	nextMidnight := world.CurrentTime + secondsPerDay
	if nextMidnight < sched.MaxTime() {
		follow = append(follow, scheduler.ScheduledEvent{
			Event: DailyResetEvent{DayNumber: e.DayNumber + 1},
			Time:  nextMidnight,
		})
	}
	return follow, nil
}
