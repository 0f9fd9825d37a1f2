// Package manager is the single-writer control surface in front of
// internal/engine: it owns the one mutex that serializes every mutation of
// the live world, drives the real-time pacing loop as a background
// goroutine, and fans out state-update broadcasts to observers (the
// WebSocket bridge, primarily).
package manager

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"scooterswap/internal/engine"
	"scooterswap/internal/entities"
	"scooterswap/internal/metrics"
	"scooterswap/internal/simconfig"
)

var (
	ErrNoConfig        = errors.New("no configuration set")
	ErrAlreadyRunning  = errors.New("simulation already running")
	ErrNotRunning      = errors.New("simulation is not running")
	ErrNotPaused       = errors.New("simulation is not paused")
	ErrConfigWhileBusy = errors.New("cannot change config while simulation is running")
)

// updateInterval bounds how often the pacing loop invokes broadcast
// callbacks, mirroring the 100ms cadence of the control surface this
// package is modeled on.
const updateInterval = 100 * time.Millisecond

// Update is the payload handed to every registered observer after each
// broadcast tick.
type Update struct {
	Timestamp      time.Time              `json:"timestamp"`
	SessionID      string                 `json:"session_id,omitempty"`
	SimulationTime float64                `json:"simulation_time"`
	Tick           int                    `json:"tick"`
	Status         string                 `json:"status"`
	Snapshot       *entities.WorldState   `json:"-"`
	Metrics        metrics.CurrentSnapshot `json:"metrics"`
}

// BroadcastObserver receives every paced update tick.
type BroadcastObserver func(Update)

// Manager serializes all access to a single underlying engine and exposes
// the lifecycle operations the HTTP/WebSocket surface calls into.
type Manager struct {
	mu sync.Mutex

	config    *simconfig.Config
	engine    *engine.Engine
	sessionID string
	startTime time.Time
	speed     float64

	observers   []observerEntry
	observerSeq int

	runLoopDone chan struct{}
}

type observerEntry struct {
	token int
	fn    BroadcastObserver
}

// New constructs an idle Manager with no configuration set.
func New() *Manager {
	return &Manager{speed: 1.0}
}

// Status returns the current engine status, or IDLE if no engine exists yet.
func (m *Manager) Status() engine.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() engine.Status {
	if m.engine == nil {
		return engine.StatusIdle
	}
	return m.engine.Status()
}

// SetConfig installs a new configuration and (re)initializes the engine.
// Refused while a run is in progress.
func (m *Manager) SetConfig(cfg *simconfig.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statusLocked() == engine.StatusRunning {
		return ErrConfigWhileBusy
	}

	m.config = cfg
	m.engine = engine.New(cfg.ToEngineConfig())
	m.engine.Initialize()
	return nil
}

// Start transitions the engine into RUNNING and launches the background
// pacing loop. Returns the new session id.
func (m *Manager) Start() (string, error) {
	m.mu.Lock()
	if m.engine == nil {
		m.mu.Unlock()
		return "", ErrNoConfig
	}
	if m.engine.Status() == engine.StatusRunning {
		m.mu.Unlock()
		return "", ErrAlreadyRunning
	}

	m.engine.MarkRunning()
	m.sessionID = uuid.NewString()
	m.startTime = time.Now()
	done := make(chan struct{})
	m.runLoopDone = done
	m.mu.Unlock()

	go m.runLoop(done)
	return m.sessionID, nil
}

// runLoop drives the simulation in batches of up to 100 events, mirroring
// the pacing contract: after each batch it broadcasts a snapshot and sleeps
// max(10ms, update_interval/speed_multiplier) before continuing.
func (m *Manager) runLoop(done chan struct{}) {
	defer close(done)

	for {
		m.mu.Lock()
		if m.engine == nil || m.engine.Status() != engine.StatusRunning {
			m.mu.Unlock()
			return
		}

		batchStart := m.engine.World().CurrentTime
		speed := m.speed
		processed := 0
		for processed < 100 {
			if !m.engine.Step() {
				break
			}
			processed++
			if m.engine.World().CurrentTime-batchStart >= speed {
				break
			}
		}
		completed := m.engine.IsCompleted()
		m.broadcastLocked()
		m.mu.Unlock()

		if completed {
			return
		}

		sleep := time.Duration(float64(updateInterval) / speed)
		if sleep < 10*time.Millisecond {
			sleep = 10 * time.Millisecond
		}
		time.Sleep(sleep)
	}
}

// broadcastLocked assembles an Update and fans it out. Callers must hold m.mu.
func (m *Manager) broadcastLocked() {
	if m.engine == nil {
		return
	}
	update := Update{
		Timestamp:      time.Now(),
		SessionID:      m.sessionID,
		SimulationTime: m.engine.World().CurrentTime,
		Tick:           m.engine.Tick(),
		Status:         m.engine.Status().String(),
		Snapshot:       m.engine.Snapshot(),
		Metrics:        m.engine.Metrics().CurrentMetrics(),
	}
	for _, entry := range m.observers {
		entry.fn(update)
	}
}

// Pause transitions a RUNNING engine to PAUSED; the background loop exits
// on its own the next time it checks status.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil || m.engine.Status() != engine.StatusRunning {
		return ErrNotRunning
	}
	m.engine.Pause()
	return nil
}

// Resume transitions PAUSED back to RUNNING and relaunches the pacing loop.
func (m *Manager) Resume() error {
	m.mu.Lock()
	if m.engine == nil || m.engine.Status() != engine.StatusPaused {
		m.mu.Unlock()
		return ErrNotPaused
	}
	m.engine.Resume()
	done := make(chan struct{})
	m.runLoopDone = done
	m.mu.Unlock()

	go m.runLoop(done)
	return nil
}

// Stop halts the engine unconditionally.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return ErrNoConfig
	}
	m.engine.Stop()
	return nil
}

// Reset rebuilds the world from the stored configuration.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return ErrNoConfig
	}
	m.engine.Reset()
	m.sessionID = ""
	return nil
}

// Step executes a single event, for debugging/manual stepping. It does not
// require the engine to be RUNNING.
func (m *Manager) Step() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return false, ErrNoConfig
	}
	return m.engine.Step(), nil
}

// SetSpeed clamps and stores the pacing speed multiplier.
func (m *Manager) SetSpeed(multiplier float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if multiplier < 0.1 {
		multiplier = 0.1
	}
	if multiplier > 100 {
		multiplier = 100
	}
	m.speed = multiplier
	return m.speed
}

// Speed returns the current pacing multiplier.
func (m *Manager) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

// Config returns the currently installed configuration, if any.
func (m *Manager) Config() *simconfig.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Snapshot returns a deep-copied world view, or nil if no engine exists.
func (m *Manager) Snapshot() *entities.WorldState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return nil
	}
	return m.engine.Snapshot()
}

// MetricsSummary returns the compiled metrics, or the zero value if no
// engine exists.
func (m *Manager) MetricsSummary() metrics.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return metrics.Summary{}
	}
	return m.engine.Metrics().Compile()
}

// MetricsCurrent returns the lightweight real-time metrics payload.
func (m *Manager) MetricsCurrent() metrics.CurrentSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return metrics.CurrentSnapshot{}
	}
	return m.engine.Metrics().CurrentMetrics()
}

// StatusInfo is the payload for GET /status.
type StatusInfo struct {
	Status          string    `json:"status"`
	SessionID       string    `json:"session_id,omitempty"`
	SimulationTime  float64   `json:"simulation_time"`
	Tick            int       `json:"tick"`
	SpeedMultiplier float64   `json:"speed_multiplier"`
	StartTime       time.Time `json:"start_time,omitempty"`
}

// StatusInfo reports detailed status for the REST status endpoint.
func (m *Manager) StatusInfo() StatusInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := StatusInfo{
		Status:          m.statusLocked().String(),
		SessionID:       m.sessionID,
		SpeedMultiplier: m.speed,
	}
	if m.engine != nil {
		info.SimulationTime = m.engine.World().CurrentTime
		info.Tick = m.engine.Tick()
	}
	if !m.startTime.IsZero() {
		info.StartTime = m.startTime
	}
	return info
}

// AddObserver registers a broadcast observer and returns a removal token.
func (m *Manager) AddObserver(fn BroadcastObserver) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observerSeq++
	token := m.observerSeq
	m.observers = append(m.observers, observerEntry{token: token, fn: fn})
	return token
}

// RemoveObserver unregisters a previously added observer.
func (m *Manager) RemoveObserver(token int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, entry := range m.observers {
		if entry.token == token {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}
