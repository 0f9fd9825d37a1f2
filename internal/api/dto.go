// Package api implements the REST control surface over internal/manager
// and the JSON projections ("DTOs") shared with the WebSocket surface.
package api

import (
	"scooterswap/internal/entities"
)

// PositionDTO is the wire shape of entities.Position.
type PositionDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SlotDTO is the wire shape of one station charging slot.
type SlotDTO struct {
	Index       int      `json:"index"`
	BatteryID   *string  `json:"battery_id,omitempty"`
	IsCharging  bool     `json:"is_charging"`
	ChargeLevel *float64 `json:"charge_level,omitempty"`
}

// StationDTO is the wire shape of one station.
type StationDTO struct {
	ID                string      `json:"id"`
	Position          PositionDTO `json:"position"`
	NumSlots          int         `json:"num_slots"`
	ChargeRateKW      float64     `json:"charge_rate_kw"`
	AvailableBatteries int        `json:"available_batteries"`
	FullBatteries     int         `json:"full_batteries"`
	EmptySlots        int         `json:"empty_slots"`
	Slots             []SlotDTO   `json:"slots"`
}

// ScooterDTO is the wire shape of one scooter.
type ScooterDTO struct {
	ID                   string       `json:"id"`
	Position             PositionDTO  `json:"position"`
	BatteryID            string       `json:"battery_id"`
	BatteryLevel         float64      `json:"battery_level"`
	State                string       `json:"state"`
	TargetStationID      *string      `json:"target_station_id,omitempty"`
	TargetPosition       *PositionDTO `json:"target_position,omitempty"`
	GroupID              *string      `json:"group_id,omitempty"`
	DistanceTraveledToday float64     `json:"distance_traveled_today"`
}

// BatteryDTO is the wire shape of one battery.
type BatteryDTO struct {
	ID               string  `json:"id"`
	CapacityKWh      float64 `json:"capacity_kwh"`
	CurrentChargeKWh float64 `json:"current_charge_kwh"`
	ChargeLevel      float64 `json:"charge_level"`
	IsFull           bool    `json:"is_full"`
	Location         string  `json:"location"`
	StationID        *string `json:"station_id,omitempty"`
	ScooterID        *string `json:"scooter_id,omitempty"`
}

// ScooterGroupDTO is the wire shape of one scooter group's display metadata.
type ScooterGroupDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// SnapshotDTO is the full world snapshot shape the control surface exposes.
type SnapshotDTO struct {
	SimulationTime float64           `json:"simulation_time"`
	Tick           int               `json:"tick"`
	Status         string            `json:"status"`
	GridWidth      int               `json:"grid_width"`
	GridHeight     int               `json:"grid_height"`
	Scooters       []ScooterDTO      `json:"scooters"`
	Stations       []StationDTO      `json:"stations"`
	Batteries      []BatteryDTO      `json:"batteries"`
	ScooterGroups  []ScooterGroupDTO `json:"scooter_groups"`
}

func positionDTO(p entities.Position) PositionDTO {
	return PositionDTO{X: p.X, Y: p.Y}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BuildSnapshot projects a world snapshot plus tick/status into the wire
// shape spec.md's snapshot table describes. World is expected to already be
// a deep copy (see entities.WorldState.Snapshot) safe to read without
// locking.
func BuildSnapshot(world *entities.WorldState, tick int, status string) SnapshotDTO {
	out := SnapshotDTO{
		SimulationTime: world.CurrentTime,
		Tick:           tick,
		Status:         status,
		GridWidth:      world.GridWidth,
		GridHeight:     world.GridHeight,
	}

	for _, id := range world.ScooterOrder {
		s, ok := world.Scooters[id]
		if !ok {
			continue
		}
		var level float64
		if b, ok := world.Batteries[s.BatteryID]; ok {
			level = b.ChargeLevel()
		}
		dto := ScooterDTO{
			ID:                    s.ID,
			Position:              positionDTO(s.Position),
			BatteryID:             s.BatteryID,
			BatteryLevel:          level,
			State:                 s.State.String(),
			TargetStationID:       strPtr(s.TargetStationID),
			GroupID:               strPtr(s.GroupID),
			DistanceTraveledToday: s.DistanceToday,
		}
		if s.TargetPosition != nil {
			tp := positionDTO(*s.TargetPosition)
			dto.TargetPosition = &tp
		}
		out.Scooters = append(out.Scooters, dto)
	}

	for _, id := range world.StationOrder {
		st, ok := world.Stations[id]
		if !ok {
			continue
		}
		dto := StationDTO{
			ID:                 st.ID,
			Position:           positionDTO(st.Position),
			NumSlots:           st.NumSlots,
			ChargeRateKW:       st.ChargeRateKW,
			AvailableBatteries: len(st.AvailableBatteries()),
			FullBatteries:      st.CountFullBatteries(world.Batteries),
			EmptySlots:         len(st.EmptySlots()),
		}
		for _, slot := range st.Slots {
			slotDTO := SlotDTO{Index: slot.Index, IsCharging: slot.IsCharging}
			if !slot.Empty() {
				id := slot.BatteryID
				slotDTO.BatteryID = &id
				if b, ok := world.Batteries[slot.BatteryID]; ok {
					level := b.ChargeLevel()
					slotDTO.ChargeLevel = &level
				}
			}
			dto.Slots = append(dto.Slots, slotDTO)
		}
		out.Stations = append(out.Stations, dto)
	}

	for id, b := range world.Batteries {
		dto := BatteryDTO{
			ID:               id,
			CapacityKWh:      b.CapacityKWh,
			CurrentChargeKWh: b.CurrentChargeKWh,
			ChargeLevel:      b.ChargeLevel(),
			IsFull:           b.IsFull(),
		}
		if b.Location == entities.BatteryInStation {
			dto.Location = "station"
			dto.StationID = strPtr(b.StationID)
		} else {
			dto.Location = "scooter"
			dto.ScooterID = strPtr(b.ScooterID)
		}
		out.Batteries = append(out.Batteries, dto)
	}

	for _, g := range world.ScooterGroups {
		out.ScooterGroups = append(out.ScooterGroups, ScooterGroupDTO{
			ID: g.ID, Name: g.Name, Color: g.Color, Count: g.Count,
		})
	}

	return out
}
