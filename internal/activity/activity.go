// Package activity implements the pluggable "is this scooter allowed to be
// active now?" strategies, gating scooters by time-of-day and daily
// distance traveled.
package activity

import "scooterswap/internal/entities"

// AlwaysActive never takes a scooter offline.
type AlwaysActive struct{}

// NewAlwaysActive constructs an AlwaysActive strategy.
func NewAlwaysActive() *AlwaysActive { return &AlwaysActive{} }

func (a *AlwaysActive) Name() string { return "always_active" }

func (a *AlwaysActive) CheckActivity(s *entities.Scooter, w *entities.WorldState) entities.ActivityCheckResult {
	return entities.ActivityCheckResult{Decision: entities.ContinueActive}
}

func (a *AlwaysActive) ShouldWakeUp(s *entities.Scooter, w *entities.WorldState, currentTime float64) bool {
	return true
}

func (a *AlwaysActive) OnDayReset(s *entities.Scooter, w *entities.WorldState, day int) {
	s.DistanceToday = 0
}

// Scheduled gates activity to a daily window, with an optional daily
// distance cap, and distinguishes a low-battery swap-then-idle from a
// plain go-idle when the window closes or the cap is hit.
type Scheduled struct {
	ActivityStartHour    float64
	ActivityEndHour      float64
	MaxDistancePerDayKM  *float64
	LowBatteryThreshold  float64
	MetersPerGridUnit    float64
}

// NewScheduled constructs a Scheduled strategy with the given parameters.
// metersPerGridUnit defaults to 100 and lowBatteryThreshold to 0.3 when
// zero-valued, matching the strategy's original defaults.
func NewScheduled(startHour, endHour float64, maxDistanceKM *float64, lowBatteryThreshold, metersPerGridUnit float64) *Scheduled {
	if lowBatteryThreshold == 0 {
		lowBatteryThreshold = 0.3
	}
	if metersPerGridUnit == 0 {
		metersPerGridUnit = 100.0
	}
	return &Scheduled{
		ActivityStartHour:   startHour,
		ActivityEndHour:     endHour,
		MaxDistancePerDayKM: maxDistanceKM,
		LowBatteryThreshold: lowBatteryThreshold,
		MetersPerGridUnit:   metersPerGridUnit,
	}
}

func (s *Scheduled) Name() string { return "scheduled" }

// timeOfDay returns the simulated hour-of-day in [0,24). Per the source
// behavior, this is simulation_time/3600 mod 24 — world.TimeScale is
// deliberately not applied here.
func timeOfDay(simulationTime float64) float64 {
	h := simulationTime / 3600
	const day = 24.0
	h = mod(h, day)
	return h
}

func dayNumber(simulationTime float64) int {
	return int(simulationTime / 86400)
}

func mod(a, b float64) float64 {
	m := a - b*float64(int(a/b))
	if m < 0 {
		m += b
	}
	return m
}

func (s *Scheduled) isWithinActiveHours(hour float64) bool {
	if s.ActivityStartHour <= s.ActivityEndHour {
		return hour >= s.ActivityStartHour && hour < s.ActivityEndHour
	}
	// Wraps across midnight.
	return hour >= s.ActivityStartHour || hour < s.ActivityEndHour
}

func (s *Scheduled) distanceToKM(gridDistance float64) float64 {
	return gridDistance * s.MetersPerGridUnit / 1000
}

func (s *Scheduled) hasExceededDailyDistance(scooter *entities.Scooter) bool {
	if s.MaxDistancePerDayKM == nil {
		return false
	}
	return s.distanceToKM(scooter.DistanceToday) >= *s.MaxDistancePerDayKM
}

func (s *Scheduled) calculateWakeUpTime(currentTime float64, outsideHours bool) float64 {
	day := dayNumber(currentTime)
	midnightOfDay := float64(day) * 86400

	if outsideHours {
		hour := timeOfDay(currentTime)
		var hoursUntilWake float64
		if hour >= s.ActivityEndHour {
			hoursUntilWake = (24 - hour) + s.ActivityStartHour
		} else {
			hoursUntilWake = s.ActivityStartHour - hour
		}
		return currentTime + hoursUntilWake*3600
	}

	// Distance-cap path: wake at next midnight plus the start hour.
	nextMidnight := midnightOfDay + 86400
	return nextMidnight + s.ActivityStartHour*3600
}

func (s *Scheduled) CheckActivity(scooter *entities.Scooter, w *entities.WorldState) entities.ActivityCheckResult {
	hour := timeOfDay(w.CurrentTime)
	withinHours := s.isWithinActiveHours(hour)
	overDistance := s.hasExceededDailyDistance(scooter)

	if withinHours && !overDistance {
		return entities.ActivityCheckResult{Decision: entities.ContinueActive}
	}

	var reason string
	var wake float64
	if !withinHours {
		reason = "outside_hours"
		wake = s.calculateWakeUpTime(w.CurrentTime, true)
	} else {
		reason = "distance_cap"
		wake = s.calculateWakeUpTime(w.CurrentTime, false)
	}

	batteryLevel := 1.0
	if battery, ok := w.GetBattery(scooter.BatteryID); ok {
		batteryLevel = battery.ChargeLevel()
	}

	decision := entities.GoIdle
	if batteryLevel < s.LowBatteryThreshold {
		decision = entities.SwapThenIdle
	}
	return entities.ActivityCheckResult{Decision: decision, WakeUpTime: &wake, Reason: reason}
}

func (s *Scheduled) ShouldWakeUp(scooter *entities.Scooter, w *entities.WorldState, currentTime float64) bool {
	if scooter.IdleUntil == nil || currentTime < *scooter.IdleUntil {
		return false
	}
	hour := timeOfDay(currentTime)
	if !s.isWithinActiveHours(hour) {
		return false
	}
	return !s.hasExceededDailyDistance(scooter)
}

func (s *Scheduled) OnDayReset(scooter *entities.Scooter, w *entities.WorldState, day int) {
	scooter.DistanceToday = 0
}
