// Package engine owns the world, scheduler, and metrics for a single
// simulation run and drives it through its run modes and status
// lifecycle.
package engine

import (
	"fmt"
	"log"
	"math"
	"time"

	"scooterswap/internal/activity"
	"scooterswap/internal/entities"
	"scooterswap/internal/events"
	"scooterswap/internal/metrics"
	"scooterswap/internal/movement"
	"scooterswap/internal/scheduler"
)

const secondsPerDay = 86400.0

// Status is the engine's run-state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusStopped
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusStopped:
		return "STOPPED"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// ScooterGroupSpec configures one named group of scooters sharing strategy
// and parameter overrides.
type ScooterGroupSpec struct {
	Name                string
	Count               int
	Color               string
	Speed               *float64
	SwapThreshold       *float64
	MovementStrategy    string
	ActivityStrategy    string
	ActivityStartHour   float64
	ActivityEndHour     float64
	MaxDistancePerDayKM *float64
	LowBatteryThreshold float64
}

// Config is everything needed to initialize a run.
type Config struct {
	GridWidth              int
	GridHeight             int
	MaxDurationSeconds     float64
	MetersPerGridUnit      float64
	TimeScale              float64
	NumStations            int
	SlotsPerStation        int
	StationChargeRateKW    float64
	InitialBatteriesPerStation int
	NumScooters            int
	ScooterSpeed           float64
	SwapThreshold          float64
	BatteryCapacityKWh     float64
	BatteryMaxChargeRateKW float64
	ConsumptionRatePerUnit float64
	RandomSeed             int64
	StationPositions       []entities.Position
	MovementStrategy       string // "random_walk" | "directed"
	ScooterGroups          []ScooterGroupSpec
}

// DefaultConfig returns the built-in sizing: a 100x100 grid with 5
// stations of 10 slots and 50 scooters, run for one simulated day.
func DefaultConfig() Config {
	return Config{
		GridWidth:                  100,
		GridHeight:                 100,
		MaxDurationSeconds:         86400,
		MetersPerGridUnit:          100,
		TimeScale:                  60,
		NumStations:                5,
		SlotsPerStation:            10,
		StationChargeRateKW:        1.3,
		InitialBatteriesPerStation: 8,
		NumScooters:                50,
		ScooterSpeed:               0.025,
		SwapThreshold:              0.2,
		BatteryCapacityKWh:         1.6,
		BatteryMaxChargeRateKW:     1.3,
		ConsumptionRatePerUnit:     0.005,
		MovementStrategy:           "random_walk",
	}
}

// Result is the outcome of a completed or interrupted run.
type Result struct {
	FinalState     *entities.WorldState
	Metrics        metrics.Summary
	EventCount     int
	SimulationTime float64
	Status         Status
}

// Observer receives every processed event. Observer errors (panics
// recovered at the call site) are logged and never interrupt the run.
type Observer func(world *entities.WorldState, evt scheduler.ScheduledEvent)

// Engine owns world, scheduler and metrics for one run and exposes the
// run modes and status FSM spec.md §4.G describes.
type Engine struct {
	config    Config
	world     *entities.WorldState
	scheduler *scheduler.Scheduler
	metricsC  *metrics.Collector
	status    Status
	eventCount int
	observers []observerEntry
	observerSeq int
}

// New constructs an Engine from config. Callers must call Initialize
// before running.
func New(config Config) *Engine {
	return &Engine{config: config, status: StatusIdle}
}

// Status returns the current run status.
func (e *Engine) Status() Status { return e.status }

// World returns the live world state (not a snapshot).
func (e *Engine) World() *entities.WorldState { return e.world }

// Metrics returns the live metrics collector.
func (e *Engine) Metrics() *metrics.Collector { return e.metricsC }

// Tick returns the number of events processed so far.
func (e *Engine) Tick() int { return e.eventCount }

// IsCompleted reports whether the run has reached a terminal state.
func (e *Engine) IsCompleted() bool {
	return e.status == StatusCompleted || e.status == StatusStopped
}

func resolveMovementStrategy(name string) entities.MovementStrategy {
	switch name {
	case "directed":
		return movement.NewDirected()
	default:
		return movement.NewRandomWalk()
	}
}

func resolveGroupActivityStrategy(g ScooterGroupSpec, metersPerGridUnit float64) entities.ActivityStrategy {
	switch g.ActivityStrategy {
	case "scheduled":
		start, end := g.ActivityStartHour, g.ActivityEndHour
		if start == 0 && end == 0 {
			start, end = 8, 20
		}
		return activity.NewScheduled(start, end, g.MaxDistancePerDayKM, g.LowBatteryThreshold, metersPerGridUnit)
	case "always_active":
		return activity.NewAlwaysActive()
	default:
		return nil
	}
}

// Initialize builds the world, stations, batteries, scooters, and schedules
// the initial event set. Safe to call again after Reset.
func (e *Engine) Initialize() {
	e.scheduler = scheduler.New(e.config.MaxDurationSeconds, e.config.RandomSeed)
	e.scheduler.ResetSequence()
	e.metricsC = metrics.New()

	world := entities.NewWorldState(e.config.GridWidth, e.config.GridHeight, e.config.MetersPerGridUnit, e.config.TimeScale)
	world.Metrics = e.metricsC
	world.MovementStrategy = resolveMovementStrategy(e.config.MovementStrategy)
	world.StationSeeking = movement.NewGreedy()
	world.ActivityStrategy = activity.NewAlwaysActive()
	e.world = world

	e.initStations()
	e.initBatteries()
	e.initScooters()
	e.scheduleInitialEvents()

	e.status = StatusIdle
	e.eventCount = 0
}

func (e *Engine) initStations() {
	positions := e.config.StationPositions
	if len(positions) == 0 {
		positions = generateStationPositions(e.config.NumStations, e.config.GridWidth, e.config.GridHeight)
	}
	for i, pos := range positions {
		st := entities.NewStation(fmt.Sprintf("station_%d", i), pos, e.config.SlotsPerStation, e.config.StationChargeRateKW)
		e.world.AddStation(st)
	}
}

func generateStationPositions(n, gridWidth, gridHeight int) []entities.Position {
	if n <= 0 {
		return nil
	}
	cols := int(math.Sqrt(float64(n))) + 1
	rows := (n + cols - 1) / cols
	xStep := gridWidth / (cols + 1)
	yStep := gridHeight / (rows + 1)

	positions := make([]entities.Position, 0, n)
	for r := 0; r < rows && len(positions) < n; r++ {
		for c := 0; c < cols && len(positions) < n; c++ {
			positions = append(positions, entities.Position{
				X: xStep * (c + 1),
				Y: yStep * (r + 1),
			})
		}
	}
	return positions
}

func (e *Engine) initBatteries() {
	batteryIdx := 0
	for _, id := range e.world.StationOrder {
		st := e.world.Stations[id]
		n := e.config.InitialBatteriesPerStation
		if n > st.NumSlots {
			n = st.NumSlots
		}
		for i := 0; i < n; i++ {
			b := entities.NewBattery(fmt.Sprintf("battery_%d", batteryIdx), e.config.BatteryCapacityKWh, e.config.BatteryMaxChargeRateKW, e.config.BatteryCapacityKWh)
			batteryIdx++
			b.PlaceInStation(st.ID, i)
			st.Slots[i].BatteryID = b.ID
			st.Slots[i].IsCharging = false
			e.world.AddBattery(b)
		}
	}
}

func (e *Engine) initScooters() {
	rng := e.scheduler.RNG()
	gridW, gridH := e.config.GridWidth, e.config.GridHeight

	total := e.config.NumScooters
	if len(e.config.ScooterGroups) > 0 {
		total = 0
		for _, g := range e.config.ScooterGroups {
			total += g.Count
		}
	}

	nextBattery := func(idx int) *entities.Battery {
		b := entities.NewBattery(fmt.Sprintf("scooter_battery_%d", idx), e.config.BatteryCapacityKWh, e.config.BatteryMaxChargeRateKW, e.config.BatteryCapacityKWh*0.8)
		e.world.AddBattery(b)
		return b
	}

	idx := 0
	spawn := func(groupID string, speed, swapThreshold float64) {
		pos := entities.Position{X: rng.Intn(gridW), Y: rng.Intn(gridH)}
		b := nextBattery(idx)
		s := &entities.Scooter{
			ID:              fmt.Sprintf("scooter_%d", idx),
			Position:        pos,
			BatteryID:       b.ID,
			State:           entities.ScooterMoving,
			Speed:           speed,
			ConsumptionRate: e.config.ConsumptionRatePerUnit,
			SwapThreshold:   swapThreshold,
			GroupID:         groupID,
		}
		b.PlaceInScooter(s.ID)
		e.world.AddScooter(s)
		idx++
	}

	if len(e.config.ScooterGroups) == 0 {
		for i := 0; i < total; i++ {
			spawn("", e.config.ScooterSpeed, e.config.SwapThreshold)
		}
		return
	}

	for gi, g := range e.config.ScooterGroups {
		groupID := fmt.Sprintf("group_%d", gi)
		speed := e.config.ScooterSpeed
		if g.Speed != nil {
			speed = *g.Speed
		}
		threshold := e.config.SwapThreshold
		if g.SwapThreshold != nil {
			threshold = *g.SwapThreshold
		}
		for i := 0; i < g.Count; i++ {
			spawn(groupID, speed, threshold)
		}
		if g.MovementStrategy != "" {
			e.world.GroupMovementStrategies[groupID] = resolveMovementStrategy(g.MovementStrategy)
		}
		if strategy := resolveGroupActivityStrategy(g, e.config.MetersPerGridUnit); strategy != nil {
			e.world.GroupActivityStrategies[groupID] = strategy
		}
		e.world.ScooterGroups = append(e.world.ScooterGroups, entities.ScooterGroupMeta{
			ID:    groupID,
			Name:  g.Name,
			Color: g.Color,
			Count: g.Count,
		})
	}
}

func (e *Engine) movementStrategyFor(s *entities.Scooter) entities.MovementStrategy {
	if s.GroupID != "" {
		if strategy, ok := e.world.GroupMovementStrategies[s.GroupID]; ok {
			return strategy
		}
	}
	return e.world.MovementStrategy
}

func (e *Engine) activityStrategyFor(s *entities.Scooter) entities.ActivityStrategy {
	if s.GroupID != "" {
		if strategy, ok := e.world.GroupActivityStrategies[s.GroupID]; ok {
			return strategy
		}
	}
	return e.world.ActivityStrategy
}

func (e *Engine) scheduleInitialEvents() {
	for _, id := range e.world.ScooterOrder {
		s := e.world.Scooters[id]
		movementStrategy := e.movementStrategyFor(s)
		movementStrategy.OnScooterActivated(s, e.world, e.scheduler.RNG())
		strategy := e.activityStrategyFor(s)
		result := strategy.CheckActivity(s, e.world)
		switch result.Decision {
		case entities.ContinueActive:
			dest := movementStrategy.GetNextDestination(s, e.world, e.scheduler.RNG())
			distance := float64(s.Position.DistanceTo(dest))
			t := s.TravelTime(distance)
			if t <= 0 {
				t = 0.1
			}
			e.scheduler.Schedule(events.ScooterMoveEvent{ScooterID: s.ID, NewPosition: dest}, t)
		case entities.GoIdle:
			wake := 0.0
			if result.WakeUpTime != nil {
				wake = *result.WakeUpTime
			}
			e.scheduler.Schedule(events.ScooterGoIdleEvent{ScooterID: s.ID, WakeUpTime: wake, Reason: result.Reason}, 0)
		case entities.SwapThenIdle:
			wake := 0.0
			if result.WakeUpTime != nil {
				wake = *result.WakeUpTime
			}
			e.scheduler.Schedule(events.ScooterSwapThenIdleEvent{ScooterID: s.ID, WakeUpTime: wake, Reason: result.Reason}, 0)
		}
	}

	for _, id := range e.world.StationOrder {
		e.scheduler.Schedule(events.BatteryChargingTickEvent{StationID: id}, 60)
	}

	if secondsPerDay < e.config.MaxDurationSeconds {
		e.scheduler.Schedule(events.DailyResetEvent{DayNumber: 1}, secondsPerDay)
	}
}

// Step pops one event, advances the clock, processes it, enqueues
// follow-ups, samples metrics, and notifies observers. Returns false if the
// queue is empty or the next event falls beyond MaxDurationSeconds, in
// which case status transitions to COMPLETED.
func (e *Engine) Step() bool {
	nextTime, ok := e.scheduler.PeekTime()
	if !ok || nextTime > e.config.MaxDurationSeconds {
		e.status = StatusCompleted
		return false
	}
	se, ok := e.scheduler.Pop()
	if !ok {
		e.status = StatusCompleted
		return false
	}

	e.world.CurrentTime = se.Time
	follow, err := se.Event.Process(e.world, e.scheduler)
	if err != nil {
		log.Printf("event processing warning: %s: %v", se.Event.Description(), err)
	}
	e.eventCount++
	e.scheduler.ScheduleMany(follow)
	e.metricsC.SampleMetrics(e.world.CurrentTime)
	e.notifyObservers(se)
	return true
}

// MarkRunning transitions an IDLE engine to RUNNING without driving the
// loop itself, for callers (the Manager) that call Step directly from
// their own pacing loop instead of RunSync/RunPaced.
func (e *Engine) MarkRunning() {
	if e.status == StatusIdle {
		e.status = StatusRunning
	}
}

// RunSync loops Step until it returns false or status leaves RUNNING.
func (e *Engine) RunSync() {
	e.status = StatusRunning
	for e.status == StatusRunning {
		if !e.Step() {
			break
		}
	}
}

// RunPaced drives the run loop in real time: before each event it peeks the
// event's time, sleeps the simulated gap scaled by speedMultiplier (capped
// at 100ms per slice), processes the event, and invokes updateCb no more
// often than updateInterval of real time. It returns when the run leaves
// RUNNING or the queue completes.
func (e *Engine) RunPaced(speedMultiplier float64, updateCb func(*entities.WorldState), updateInterval time.Duration) {
	e.status = StatusRunning
	lastUpdate := time.Now()
	for e.status == StatusRunning {
		nextTime, ok := e.scheduler.PeekTime()
		if !ok || nextTime > e.config.MaxDurationSeconds {
			e.status = StatusCompleted
			break
		}
		delaySeconds := (nextTime - e.world.CurrentTime) / speedMultiplier
		if delaySeconds > 0.001 {
			sleep := time.Duration(delaySeconds * float64(time.Second))
			const cap = 100 * time.Millisecond
			if sleep > cap {
				sleep = cap
			}
			time.Sleep(sleep)
		}
		if !e.Step() {
			break
		}
		if updateCb != nil && time.Since(lastUpdate) >= updateInterval {
			updateCb(e.world)
			lastUpdate = time.Now()
		}
	}
}

// Pause transitions RUNNING -> PAUSED.
func (e *Engine) Pause() {
	if e.status == StatusRunning {
		e.status = StatusPaused
	}
}

// Resume transitions PAUSED -> RUNNING.
func (e *Engine) Resume() {
	if e.status == StatusPaused {
		e.status = StatusRunning
	}
}

// Stop transitions to STOPPED from any state.
func (e *Engine) Stop() {
	e.status = StatusStopped
}

// Reset rebuilds the world and scheduler from the engine's stored config.
func (e *Engine) Reset() {
	e.Initialize()
}

// observerEntry pairs an observer with a stable token so it can be
// unregistered later.
type observerEntry struct {
	token int
	fn    Observer
}

// AddObserver registers an observer invoked after every processed event and
// returns a token usable with RemoveObserver.
func (e *Engine) AddObserver(o Observer) int {
	e.observerSeq++
	token := e.observerSeq
	e.observers = append(e.observers, observerEntry{token: token, fn: o})
	return token
}

// RemoveObserver unregisters a previously added observer by its token.
func (e *Engine) RemoveObserver(token int) {
	for i, entry := range e.observers {
		if entry.token == token {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// ClearObservers removes all registered observers.
func (e *Engine) ClearObservers() {
	e.observers = nil
}

func (e *Engine) notifyObservers(se scheduler.ScheduledEvent) {
	for _, entry := range e.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("observer error: %v", r)
				}
			}()
			entry.fn(e.world, se)
		}()
	}
}

// Snapshot returns a deep-copied, read-only view of the world.
func (e *Engine) Snapshot() *entities.WorldState {
	return e.world.Snapshot()
}

// BuildResult compiles the final Result for the current run state.
func (e *Engine) BuildResult() Result {
	return Result{
		FinalState:     e.world.Snapshot(),
		Metrics:        e.metricsC.Compile(),
		EventCount:     e.eventCount,
		SimulationTime: e.world.CurrentTime,
		Status:         e.status,
	}
}
