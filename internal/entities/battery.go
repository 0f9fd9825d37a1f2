package entities

// fullChargeEpsilon is the tolerance below full capacity at which a battery
// is considered fully charged.
const fullChargeEpsilon = 1e-4

// BatteryLocation discriminates whether a battery currently lives inside a
// scooter or inside a station's charging slot.
type BatteryLocation int

const (
	BatteryInScooter BatteryLocation = iota
	BatteryInStation
)

// Battery is identified by ID and carries a discriminated back-reference:
// exactly one of ScooterID or (StationID, SlotIndex) is meaningful,
// consistent with Location.
type Battery struct {
	ID               string
	CapacityKWh      float64
	MaxChargeRateKW  float64
	CurrentChargeKWh float64
	Location         BatteryLocation

	ScooterID string
	StationID string
	SlotIndex int
}

// NewBattery constructs a battery carried by a scooter at the given charge.
func NewBattery(id string, capacityKWh, maxChargeRateKW, currentChargeKWh float64) *Battery {
	return &Battery{
		ID:               id,
		CapacityKWh:      capacityKWh,
		MaxChargeRateKW:  maxChargeRateKW,
		CurrentChargeKWh: clamp(currentChargeKWh, 0, capacityKWh),
		Location:         BatteryInScooter,
	}
}

// ChargeLevel returns the fraction of capacity currently charged, in [0,1].
func (b *Battery) ChargeLevel() float64 {
	if b.CapacityKWh <= 0 {
		return 0
	}
	return b.CurrentChargeKWh / b.CapacityKWh
}

// IsFull reports whether the battery is within fullChargeEpsilon of capacity.
func (b *Battery) IsFull() bool {
	return b.CapacityKWh-b.CurrentChargeKWh < fullChargeEpsilon
}

// TimeToFullCharge returns the seconds required to reach capacity at the
// given charge rate, given in kW. Returns 0 if already full or non-positive
// rate.
func (b *Battery) TimeToFullCharge(chargeRateKW float64) float64 {
	remaining := b.CapacityKWh - b.CurrentChargeKWh
	if remaining <= 0 || chargeRateKW <= 0 {
		return 0
	}
	return (remaining / chargeRateKW) * 3600
}

// AddCharge adds energy, clamped so CurrentChargeKWh never exceeds capacity.
func (b *Battery) AddCharge(energyKWh float64) {
	b.CurrentChargeKWh = clamp(b.CurrentChargeKWh+energyKWh, 0, b.CapacityKWh)
}

// ConsumeEnergy removes energy, clamped so CurrentChargeKWh never drops
// below zero.
func (b *Battery) ConsumeEnergy(energyKWh float64) {
	b.CurrentChargeKWh = clamp(b.CurrentChargeKWh-energyKWh, 0, b.CapacityKWh)
}

// PlaceInScooter moves the battery into a scooter, clearing station refs.
func (b *Battery) PlaceInScooter(scooterID string) {
	b.Location = BatteryInScooter
	b.ScooterID = scooterID
	b.StationID = ""
	b.SlotIndex = 0
}

// PlaceInStation moves the battery into a station slot, clearing scooter ref.
func (b *Battery) PlaceInStation(stationID string, slotIndex int) {
	b.Location = BatteryInStation
	b.StationID = stationID
	b.SlotIndex = slotIndex
	b.ScooterID = ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
