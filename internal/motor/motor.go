package motor

import (
	"math"
	"sync"
	"time"
)

// Motor is the per-actuator handle. Configuration and target writes go
// through the locked command surface and are observed by the control task no
// later than its next tick; control state and telemetry are owned by the task
// and only mirrored back for readers. All setters are non-blocking.
//
// A handle created with New runs its own background control task until Close,
// which joins the task and issues a final zero actuation. A handle created
// with NewManual is driven explicitly via Tick, for offline simulation and
// gain tuning.
type Motor struct {
	port    int
	driver  Driver
	ceiling float64
	tick    time.Duration
	manual  bool

	mu            sync.Mutex
	cfg           Config
	tgt           target
	stopRequested bool
	retarget      bool // seed the integral accumulator next tick
	resetPos      bool
	posOffset     float64
	tel           Telemetry // device frame, last known good
	lastCmd       float64   // device frame, mV
	stale         bool
	closed        bool

	// owned by the control task
	cs         controlState
	staleTicks int

	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New creates a handle and starts its background control task at the default
// tick period.
func New(d Driver, port int, g Gearset) *Motor {
	m := newMotor(d, port, g)
	go m.loop()
	return m
}

// NewManual creates a handle with no background task; the caller advances the
// control cycle with Tick. Used by the simulator harness and the tuner.
func NewManual(d Driver, port int, g Gearset) *Motor {
	m := newMotor(d, port, g)
	m.manual = true
	close(m.loopDone)
	return m
}

func newMotor(d Driver, port int, g Gearset) *Motor {
	return &Motor{
		port:     port,
		driver:   d,
		ceiling:  d.VoltageCeilingMv(port),
		tick:     DefaultTickPeriod,
		cfg:      defaultConfig(g),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

func (m *Motor) loop() {
	t := time.NewTicker(m.tick)
	defer t.Stop()
	defer close(m.loopDone)
	for {
		select {
		case <-m.done:
			m.mu.Lock()
			brake := m.cfg.BrakeMode
			m.mu.Unlock()
			m.driver.Actuate(m.port, 0, brake)
			return
		case <-t.C:
			m.runCycle()
		}
	}
}

// Close stops the control task, joins it, and zeroes the actuator. No tick
// runs after Close returns. Safe to call more than once.
func (m *Motor) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
		<-m.loopDone
		if m.manual {
			m.mu.Lock()
			brake := m.cfg.BrakeMode
			m.mu.Unlock()
			m.driver.Actuate(m.port, 0, brake)
		}
	})
	return nil
}

// Tick runs one control cycle on a manual handle. It is a no-op on handles
// with a background task; ticks for one actuator never overlap.
func (m *Motor) Tick() {
	if !m.manual {
		return
	}
	m.runCycle()
}

func (m *Motor) runCycle() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	cfg := m.cfg
	tgt := m.tgt
	stopReq := m.stopRequested
	retarget := m.retarget
	m.retarget = false
	resetPos := m.resetPos
	m.resetPos = false
	lastGood := m.tel
	m.mu.Unlock()

	tel, rerr := m.driver.ReadTelemetry(m.port)
	readOK := rerr == nil
	if !readOK {
		tel = lastGood
	}

	devTgt := tgt
	if cfg.Reversed {
		devTgt.value = -devTgt.value
	}

	var cmd float64
	switch {
	case stopReq:
		// Explicit stop short-circuits the pipeline and clears the control
		// state so the next nonzero target starts without a stale-integral
		// kick.
		m.cs.reset()
	case m.staleTicks >= staleTickLimit:
		// Fail-soft: after too many failed driver calls, read or actuate,
		// the last aggressive command must not be repeated indefinitely.
		m.cs.reset()
	default:
		if retarget && cfg.PIDEnabled && cfg.StartIntegral != 0 {
			if devRPM := devTgt.rpmEquivalent(cfg.Gearset); devRPM != 0 {
				m.cs.integral = math.Copysign(cfg.StartIntegral, devRPM)
			}
		}
		cmd = computeCommand(&cfg, &m.cs, devTgt, tel, m.ceiling)
	}

	aerr := m.driver.Actuate(m.port, cmd, cfg.BrakeMode)
	if readOK && aerr == nil {
		m.staleTicks = 0
	} else {
		m.staleTicks++
	}

	m.mu.Lock()
	if resetPos {
		m.posOffset = tel.PositionCounts
	}
	m.tel = tel
	m.lastCmd = cmd
	m.stale = m.staleTicks > 0
	m.mu.Unlock()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validGains(g PIDGains) bool {
	return isFinite(g.KV) && isFinite(g.KP) && isFinite(g.KI) && isFinite(g.KD)
}

// SetTargetRPM stages a signed RPM setpoint, clamped to the gearset limit.
func (m *Motor) SetTargetRPM(v float64) error {
	if !isFinite(v) {
		return configErr("targetRPM", v, ErrNonFinite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	max := m.cfg.Gearset.MaxRPM()
	m.tgt = target{mode: ModeRPM, value: clamp(v, -max, max)}
	m.stopRequested = false
	m.retarget = true
	return nil
}

// SetTargetPercent stages a signed percent-of-max setpoint, clamped to ±100.
func (m *Motor) SetTargetPercent(v float64) error {
	if !isFinite(v) {
		return configErr("targetPercent", v, ErrNonFinite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.tgt = target{mode: ModePercent, value: clamp(v, -100, 100)}
	m.stopRequested = false
	m.retarget = true
	return nil
}

// Stop stages an immediate zero command: the next tick bypasses the pipeline,
// actuates zero (brake-mode appropriate) and clears integral and previous
// command. Idempotent.
func (m *Motor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tgt = target{mode: ModePercent, value: 0}
	m.stopRequested = true
}

func (m *Motor) SetPIDEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.PIDEnabled = enabled
}

// SetDualConstants replaces both regime constant sets as one atomic unit.
func (m *Motor) SetDualConstants(low, high PIDGains) error {
	if !validGains(low) {
		return configErr("lowGains", math.NaN(), ErrNonFinite)
	}
	if !validGains(high) {
		return configErr("highGains", math.NaN(), ErrNonFinite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Low = low
	m.cfg.High = high
	return nil
}

func (m *Motor) SetLowConstants(g PIDGains) error {
	if !validGains(g) {
		return configErr("lowGains", math.NaN(), ErrNonFinite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Low = g
	return nil
}

func (m *Motor) SetHighConstants(g PIDGains) error {
	if !validGains(g) {
		return configErr("highGains", math.NaN(), ErrNonFinite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.High = g
	return nil
}

// SetStartIntegral sets the seed applied to the integral accumulator when a
// new nonzero target is staged.
func (m *Motor) SetStartIntegral(v float64) error {
	if !isFinite(v) {
		return configErr("startIntegral", v, ErrNonFinite)
	}
	if v < 0 {
		return configErr("startIntegral", v, ErrOutOfRange)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.StartIntegral = v
	return nil
}

// SetSwitchThresholdRPM moves the LOW/HIGH regime switch point. Zero restores
// the default of half the gearset max.
func (m *Motor) SetSwitchThresholdRPM(v float64) error {
	if !isFinite(v) {
		return configErr("switchThreshold", v, ErrNonFinite)
	}
	if v < 0 {
		return configErr("switchThreshold", v, ErrOutOfRange)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.SwitchThresholdRPM = v
	return nil
}

// SetSlewLimitEnabled toggles the per-tick command delta limit. Enabling
// before any rate was configured seeds DefaultSlewRateMv, keeping the
// invariant that an enabled stage always has a positive rate.
func (m *Motor) SetSlewLimitEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.SlewEnabled = enabled
	if enabled && m.cfg.SlewRate <= 0 {
		m.cfg.SlewRate = DefaultSlewRateMv
	}
}

func (m *Motor) SetSlewRate(mvPerTick float64) error {
	if !isFinite(mvPerTick) {
		return configErr("slewRate", mvPerTick, ErrNonFinite)
	}
	if mvPerTick <= 0 {
		return configErr("slewRate", mvPerTick, ErrOutOfRange)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.SlewRate = mvPerTick
	return nil
}

func (m *Motor) SetLoadCompensation(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.LoadCompEnabled = enabled
}

// SetLoadCompensationParams updates the boost gain and current threshold as
// one unit.
func (m *Motor) SetLoadCompensationParams(kBoost, thresholdMa float64) error {
	if !isFinite(kBoost) {
		return configErr("kBoost", kBoost, ErrNonFinite)
	}
	if !isFinite(thresholdMa) {
		return configErr("currentThresholdMa", thresholdMa, ErrNonFinite)
	}
	if kBoost < 0 {
		return configErr("kBoost", kBoost, ErrOutOfRange)
	}
	if thresholdMa < 0 {
		return configErr("currentThresholdMa", thresholdMa, ErrOutOfRange)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.KBoost = kBoost
	m.cfg.CurrentThresholdMa = thresholdMa
	return nil
}

func (m *Motor) SetMinTorque(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.MinTorqueEnabled = enabled
}

// SetMinTorqueVoltages updates both regime floors as one unit;
// highMv >= lowMv >= 0 is enforced.
func (m *Motor) SetMinTorqueVoltages(highMv, lowMv float64) error {
	if !isFinite(highMv) || !isFinite(lowMv) {
		return configErr("minTorqueMv", highMv, ErrNonFinite)
	}
	if lowMv < 0 || highMv < lowMv {
		return configErr("minTorqueMv", highMv, ErrOutOfRange)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.MinVoltageHighMv = highMv
	m.cfg.MinVoltageLowMv = lowMv
	return nil
}

func (m *Motor) SetReversed(reversed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Reversed = reversed
}

func (m *Motor) SetBrakeMode(b BrakeMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.BrakeMode = b
}

// ResetPosition stages a position zero honored by the next tick; the caller
// never mutates telemetry directly.
func (m *Motor) ResetPosition() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetPos = true
}

// userSign flips device-frame readings for reversed actuators.
func (m *Motor) userSign() float64 {
	if m.cfg.Reversed {
		return -1
	}
	return 1
}

func (m *Motor) Port() int { return m.port }

func (m *Motor) RPM() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel.RPM * m.userSign()
}

// TargetRPM reports the staged setpoint as a signed RPM value regardless of
// target mode.
func (m *Motor) TargetRPM() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tgt.rpmEquivalent(m.cfg.Gearset)
}

func (m *Motor) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (m.tel.PositionCounts - m.posOffset) * m.userSign()
}

func (m *Motor) Voltage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel.VoltageMv * m.userSign()
}

func (m *Motor) VoltageLimit() float64 { return m.ceiling }

func (m *Motor) Current() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel.CurrentMa
}

func (m *Motor) Temperature() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel.TemperatureC
}

// LastCommandMv reports the command issued by the most recently completed
// tick, in the caller's sign convention.
func (m *Motor) LastCommandMv() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCmd * m.userSign()
}

// Stale reports whether the last tick ran on held telemetry.
func (m *Motor) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

// IsSpinning reports whether the measured speed is within tolerance of a
// nonzero target.
func (m *Motor) IsSpinning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tgtRPM := m.tgt.rpmEquivalent(m.cfg.Gearset)
	if tgtRPM == 0 {
		return false
	}
	return math.Abs(m.tel.RPM*m.userSign()-tgtRPM) <= spinToleranceRPM
}

// IsSpinningRaw reports whether the measured speed is above the noise floor,
// independent of any target.
func (m *Motor) IsSpinningRaw() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return math.Abs(m.tel.RPM) > spinNoiseFloorRPM
}

// Snapshot returns the last completed tick's telemetry in the caller's sign
// convention, with the staged position zero applied.
func (m *Motor) Snapshot() Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.userSign()
	return Telemetry{
		RPM:            m.tel.RPM * s,
		PositionCounts: (m.tel.PositionCounts - m.posOffset) * s,
		VoltageMv:      m.tel.VoltageMv * s,
		CurrentMa:      m.tel.CurrentMa,
		TemperatureC:   m.tel.TemperatureC,
	}
}

func (m *Motor) Gearset() Gearset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Gearset
}

func (m *Motor) Reversed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Reversed
}

func (m *Motor) BrakeMode() BrakeMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.BrakeMode
}

func (m *Motor) PIDEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.PIDEnabled
}

func (m *Motor) LowConstants() PIDGains {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Low
}

func (m *Motor) HighConstants() PIDGains {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.High
}

func (m *Motor) StartIntegral() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.StartIntegral
}

func (m *Motor) SwitchThresholdRPM() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.switchThreshold()
}

func (m *Motor) SlewEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.SlewEnabled
}

func (m *Motor) SlewRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.SlewRate
}

// LoadCompensation reports (enabled, kBoost, currentThresholdMa).
func (m *Motor) LoadCompensation() (bool, float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.LoadCompEnabled, m.cfg.KBoost, m.cfg.CurrentThresholdMa
}

// MinTorque reports (enabled, minVoltageHighMv, minVoltageLowMv).
func (m *Motor) MinTorque() (bool, float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.MinTorqueEnabled, m.cfg.MinVoltageHighMv, m.cfg.MinVoltageLowMv
}
