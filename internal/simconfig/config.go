// Package simconfig loads and validates the YAML configuration payload that
// seeds a simulation run, and projects it onto internal/engine.Config.
package simconfig

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"scooterswap/internal/engine"
	"scooterswap/internal/entities"
)

// Position is a grid coordinate in the configuration payload.
type Position struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Grid describes the simulated world's dimensions.
type Grid struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Station is an explicit station placement. When the payload's Stations
// list is empty, NumStations auto-placed stations are generated instead.
type Station struct {
	Position         Position `yaml:"position" json:"position"`
	NumSlots         int      `yaml:"num_slots" json:"num_slots"`
	InitialBatteries int      `yaml:"initial_batteries" json:"initial_batteries"`
}

// BatterySpec describes the fleet-wide battery parameters.
type BatterySpec struct {
	CapacityKWh     float64 `yaml:"capacity_kwh" json:"capacity_kwh"`
	ChargeRateKW    float64 `yaml:"charge_rate_kw" json:"charge_rate_kw"`
	ConsumptionRate float64 `yaml:"consumption_rate" json:"consumption_rate"`
}

// Scooters describes the base fleet (overridden per-group by ScooterGroups).
type Scooters struct {
	Count         int         `yaml:"count" json:"count"`
	Speed         float64     `yaml:"speed" json:"speed"`
	SwapThreshold float64     `yaml:"swap_threshold" json:"swap_threshold"`
	BatterySpec   BatterySpec `yaml:"battery_spec" json:"battery_spec"`
}

// ActivitySchedule configures a group's Scheduled activity strategy.
type ActivitySchedule struct {
	StartHour           float64  `yaml:"start_hour" json:"start_hour"`
	EndHour              float64  `yaml:"end_hour" json:"end_hour"`
	MaxDistancePerDayKM  *float64 `yaml:"max_distance_per_day_km" json:"max_distance_per_day_km,omitempty"`
	LowBatteryThreshold  float64  `yaml:"low_battery_threshold" json:"low_battery_threshold"`
}

// ScooterGroup is a named subset of the fleet sharing overrides.
type ScooterGroup struct {
	Name             string            `yaml:"name" json:"name"`
	Count            int               `yaml:"count" json:"count"`
	Color            string            `yaml:"color" json:"color"`
	Speed            *float64          `yaml:"speed" json:"speed,omitempty"`
	SwapThreshold    *float64          `yaml:"swap_threshold" json:"swap_threshold,omitempty"`
	MovementStrategy string            `yaml:"movement_strategy" json:"movement_strategy"`
	ActivityStrategy string            `yaml:"activity_strategy" json:"activity_strategy"`
	ActivitySchedule *ActivitySchedule `yaml:"activity_schedule" json:"activity_schedule,omitempty"`
}

// Config is the on-disk / over-the-wire configuration payload described by
// the simulation's configuration surface.
type Config struct {
	Grid                       Grid           `yaml:"grid" json:"grid"`
	Stations                   []Station      `yaml:"stations" json:"stations,omitempty"`
	NumStations                int            `yaml:"num_stations" json:"num_stations"`
	SlotsPerStation            int            `yaml:"slots_per_station" json:"slots_per_station"`
	StationChargeRateKW        float64        `yaml:"station_charge_rate_kw" json:"station_charge_rate_kw"`
	InitialBatteriesPerStation int            `yaml:"initial_batteries_per_station" json:"initial_batteries_per_station"`
	Scooters                   Scooters       `yaml:"scooters" json:"scooters"`
	ScooterGroups              []ScooterGroup `yaml:"scooter_groups" json:"scooter_groups,omitempty"`
	DurationHours              float64        `yaml:"duration_hours" json:"duration_hours"`
	RandomSeed                 *int64         `yaml:"random_seed" json:"random_seed,omitempty"`
	MovementStrategy           string         `yaml:"movement_strategy" json:"movement_strategy"`
}

// Default returns the payload equivalent of engine.DefaultConfig, usable as
// a starting point before overrides are applied.
func Default() Config {
	d := engine.DefaultConfig()
	return Config{
		Grid:                       Grid{Width: d.GridWidth, Height: d.GridHeight},
		NumStations:                d.NumStations,
		SlotsPerStation:            d.SlotsPerStation,
		StationChargeRateKW:        d.StationChargeRateKW,
		InitialBatteriesPerStation: d.InitialBatteriesPerStation,
		Scooters: Scooters{
			Count:         d.NumScooters,
			Speed:         d.ScooterSpeed,
			SwapThreshold: d.SwapThreshold,
			BatterySpec: BatterySpec{
				CapacityKWh:     d.BatteryCapacityKWh,
				ChargeRateKW:    d.BatteryMaxChargeRateKW,
				ConsumptionRate: d.ConsumptionRatePerUnit,
			},
		},
		DurationHours:    d.MaxDurationSeconds / 3600,
		MovementStrategy: d.MovementStrategy,
	}
}

// Load reads a YAML file, applies it over Default(), and validates the
// result. It returns the first validation error wrapped for context; use
// LoadUnchecked plus Validate directly to collect every violation.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if errs := c.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errs[0])
	}
	return c, nil
}

// LoadUnchecked loads a YAML file without validating it, useful for
// POST /api/v1/config/validate style flows that want to report every
// violation at once rather than failing fast.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

var colorRE = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks the payload against the validation-rules table and
// returns every violation found (nil if the payload is valid).
func (c *Config) Validate() []error {
	var errs []error
	addf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Grid.Width < 10 || c.Grid.Width > 1000 {
		addf("grid.width must be in [10, 1000], got %d", c.Grid.Width)
	}
	if c.Grid.Height < 10 || c.Grid.Height > 1000 {
		addf("grid.height must be in [10, 1000], got %d", c.Grid.Height)
	}

	numStations := c.NumStations
	if len(c.Stations) > 0 {
		numStations = len(c.Stations)
	}
	if numStations < 1 || numStations > 50 {
		addf("num_stations must be in [1, 50], got %d", numStations)
	}

	if c.Scooters.Count < 1 || c.Scooters.Count > 10000 {
		addf("scooters.count must be in [1, 10000], got %d", c.Scooters.Count)
	}
	if c.Scooters.SwapThreshold < 0.05 || c.Scooters.SwapThreshold > 0.5 {
		addf("scooters.swap_threshold must be in [0.05, 0.5], got %v", c.Scooters.SwapThreshold)
	}
	if c.Scooters.Speed <= 0 {
		addf("scooters.speed must be positive, got %v", c.Scooters.Speed)
	}
	if c.Scooters.BatterySpec.CapacityKWh <= 0 {
		addf("scooters.battery_spec.capacity_kwh must be positive, got %v", c.Scooters.BatterySpec.CapacityKWh)
	}
	if c.Scooters.BatterySpec.ChargeRateKW <= 0 {
		addf("scooters.battery_spec.charge_rate_kw must be positive, got %v", c.Scooters.BatterySpec.ChargeRateKW)
	}
	if c.Scooters.BatterySpec.ConsumptionRate <= 0 {
		addf("scooters.battery_spec.consumption_rate must be positive, got %v", c.Scooters.BatterySpec.ConsumptionRate)
	}
	if c.StationChargeRateKW <= 0 {
		addf("station_charge_rate_kw must be positive, got %v", c.StationChargeRateKW)
	}

	if len(c.Stations) > 0 {
		for i, st := range c.Stations {
			if st.Position.X < 0 || st.Position.X >= c.Grid.Width || st.Position.Y < 0 || st.Position.Y >= c.Grid.Height {
				addf("stations[%d].position %v is outside the grid", i, st.Position)
			}
			if st.InitialBatteries > st.NumSlots {
				addf("stations[%d].initial_batteries (%d) exceeds num_slots (%d)", i, st.InitialBatteries, st.NumSlots)
			}
		}
	} else if c.InitialBatteriesPerStation > c.SlotsPerStation {
		addf("initial_batteries_per_station (%d) exceeds slots_per_station (%d)", c.InitialBatteriesPerStation, c.SlotsPerStation)
	}

	if c.DurationHours <= 0 || c.DurationHours > 168 {
		addf("duration_hours must be in (0, 168], got %v", c.DurationHours)
	}

	switch c.MovementStrategy {
	case "", "random_walk", "directed":
	default:
		addf("movement_strategy must be one of random_walk, directed; got %q", c.MovementStrategy)
	}

	for i, g := range c.ScooterGroups {
		if g.Color != "" && !colorRE.MatchString(g.Color) {
			addf("scooter_groups[%d].color %q does not match #RRGGBB", i, g.Color)
		}
		if g.SwapThreshold != nil && (*g.SwapThreshold < 0.05 || *g.SwapThreshold > 0.5) {
			addf("scooter_groups[%d].swap_threshold must be in [0.05, 0.5], got %v", i, *g.SwapThreshold)
		}
		if g.Speed != nil && *g.Speed <= 0 {
			addf("scooter_groups[%d].speed must be positive, got %v", i, *g.Speed)
		}
		if g.Count < 0 {
			addf("scooter_groups[%d].count must be non-negative, got %d", i, g.Count)
		}
	}

	return errs
}

// ToEngineConfig projects the validated payload onto the engine's internal
// configuration shape. Callers should Validate first; ToEngineConfig does
// not re-validate.
func (c *Config) ToEngineConfig() engine.Config {
	base := engine.DefaultConfig()

	ec := engine.Config{
		GridWidth:                  c.Grid.Width,
		GridHeight:                 c.Grid.Height,
		MaxDurationSeconds:         c.DurationHours * 3600,
		MetersPerGridUnit:          base.MetersPerGridUnit,
		TimeScale:                  base.TimeScale,
		NumStations:                c.NumStations,
		SlotsPerStation:            c.SlotsPerStation,
		StationChargeRateKW:        c.StationChargeRateKW,
		InitialBatteriesPerStation: c.InitialBatteriesPerStation,
		NumScooters:                c.Scooters.Count,
		ScooterSpeed:               c.Scooters.Speed,
		SwapThreshold:              c.Scooters.SwapThreshold,
		BatteryCapacityKWh:         c.Scooters.BatterySpec.CapacityKWh,
		BatteryMaxChargeRateKW:     c.Scooters.BatterySpec.ChargeRateKW,
		ConsumptionRatePerUnit:     c.Scooters.BatterySpec.ConsumptionRate,
		MovementStrategy:           c.MovementStrategy,
	}
	if ec.MovementStrategy == "" {
		ec.MovementStrategy = base.MovementStrategy
	}
	if c.RandomSeed != nil {
		ec.RandomSeed = *c.RandomSeed
	} else {
		ec.RandomSeed = time.Now().UnixNano()
	}

	if len(c.Stations) > 0 {
		ec.NumStations = len(c.Stations)
		positions := make([]entities.Position, len(c.Stations))
		for i, st := range c.Stations {
			positions[i] = entities.Position{X: st.Position.X, Y: st.Position.Y}
		}
		ec.StationPositions = positions
		// An explicit per-station slot/battery count only applies uniformly
		// here; per-station slot counts are not part of engine.Config, so
		// the first station's values stand in for the uniform case the
		// engine supports.
		if c.Stations[0].NumSlots > 0 {
			ec.SlotsPerStation = c.Stations[0].NumSlots
		}
		ec.InitialBatteriesPerStation = c.Stations[0].InitialBatteries
	}

	for _, g := range c.ScooterGroups {
		spec := engine.ScooterGroupSpec{
			Name:             g.Name,
			Count:            g.Count,
			Color:            g.Color,
			Speed:            g.Speed,
			SwapThreshold:    g.SwapThreshold,
			MovementStrategy: g.MovementStrategy,
			ActivityStrategy: g.ActivityStrategy,
		}
		if g.ActivitySchedule != nil {
			spec.ActivityStartHour = g.ActivitySchedule.StartHour
			spec.ActivityEndHour = g.ActivitySchedule.EndHour
			spec.MaxDistancePerDayKM = g.ActivitySchedule.MaxDistancePerDayKM
			spec.LowBatteryThreshold = g.ActivitySchedule.LowBatteryThreshold
		}
		ec.ScooterGroups = append(ec.ScooterGroups, spec)
	}

	return ec
}
