package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBatteryClampsInitialCharge(t *testing.T) {
	b := NewBattery("b1", 1.6, 1.3, 10)
	assert.Equal(t, 1.6, b.CurrentChargeKWh)
	assert.Equal(t, BatteryInScooter, b.Location)

	b2 := NewBattery("b2", 1.6, 1.3, -5)
	assert.Equal(t, 0.0, b2.CurrentChargeKWh)
}

func TestBatteryChargeLevel(t *testing.T) {
	b := NewBattery("b1", 2.0, 1.0, 1.0)
	assert.InDelta(t, 0.5, b.ChargeLevel(), 1e-9)

	zeroCap := &Battery{CapacityKWh: 0, CurrentChargeKWh: 0}
	assert.Equal(t, 0.0, zeroCap.ChargeLevel())
}

func TestBatteryIsFull(t *testing.T) {
	b := NewBattery("b1", 1.6, 1.3, 1.6)
	assert.True(t, b.IsFull())

	b2 := NewBattery("b2", 1.6, 1.3, 1.5999)
	assert.True(t, b2.IsFull())

	b3 := NewBattery("b3", 1.6, 1.3, 1.0)
	assert.False(t, b3.IsFull())
}

func TestBatteryTimeToFullCharge(t *testing.T) {
	b := NewBattery("b1", 1.6, 1.3, 0.3)
	got := b.TimeToFullCharge(1.3)
	want := (1.3 / 1.3) * 3600
	assert.InDelta(t, want, got, 1e-9)

	full := NewBattery("b2", 1.6, 1.3, 1.6)
	assert.Equal(t, 0.0, full.TimeToFullCharge(1.3))

	assert.Equal(t, 0.0, b.TimeToFullCharge(0))
	assert.Equal(t, 0.0, b.TimeToFullCharge(-1))
}

func TestBatteryAddChargeClampsAtCapacity(t *testing.T) {
	b := NewBattery("b1", 1.0, 1.0, 0.9)
	b.AddCharge(0.5)
	assert.Equal(t, 1.0, b.CurrentChargeKWh)
}

func TestBatteryConsumeEnergyClampsAtZero(t *testing.T) {
	b := NewBattery("b1", 1.0, 1.0, 0.1)
	b.ConsumeEnergy(0.5)
	assert.Equal(t, 0.0, b.CurrentChargeKWh)
}

func TestBatteryPlaceInScooterClearsStationRefs(t *testing.T) {
	b := NewBattery("b1", 1.0, 1.0, 1.0)
	b.PlaceInStation("station_0", 3)
	b.PlaceInScooter("scooter_0")

	assert.Equal(t, BatteryInScooter, b.Location)
	assert.Equal(t, "scooter_0", b.ScooterID)
	assert.Equal(t, "", b.StationID)
	assert.Equal(t, 0, b.SlotIndex)
}

func TestBatteryPlaceInStationClearsScooterRef(t *testing.T) {
	b := NewBattery("b1", 1.0, 1.0, 1.0)
	b.PlaceInScooter("scooter_0")
	b.PlaceInStation("station_0", 2)

	assert.Equal(t, BatteryInStation, b.Location)
	assert.Equal(t, "station_0", b.StationID)
	assert.Equal(t, 2, b.SlotIndex)
	assert.Equal(t, "", b.ScooterID)
}
