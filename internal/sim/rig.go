package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/calder-labs/motorcore/internal/motor"
)

// CountsPerRev is the simulated encoder resolution at the output shaft.
const CountsPerRev = 360.0

// Rig is a bench of simulated motors behind the driver boundary. The control
// tasks talk to it like hardware while the caller advances physics with
// Advance, or lets Start run it against the wall clock.
type Rig struct {
	integ Integrator

	mu     sync.Mutex
	slots  map[int]*slot
	t      float64
	rng    *rand.Rand
	noise  float64 // RPM stddev added to speed reads
	closed chan struct{}
	wg     sync.WaitGroup
}

type slot struct {
	model   *DCMotor
	x       State
	u       Control
	readErr error
}

func NewRig(integ Integrator) *Rig {
	return &Rig{
		integ: integ,
		slots: map[int]*slot{},
		rng:   rand.New(rand.NewSource(1)),
	}
}

// AddMotor attaches a simulated motor at the given port.
func (r *Rig) AddMotor(port int, model *DCMotor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[port] = &slot{
		model: model,
		x:     model.InitialState(),
		u:     Control{0, 0},
	}
}

// SetNoise adds gaussian noise to speed telemetry, in RPM standard deviation.
func (r *Rig) SetNoise(stddevRPM float64, seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noise = stddevRPM
	r.rng = rand.New(rand.NewSource(seed))
}

// SetReadError injects a telemetry fault on one port; nil clears it.
func (r *Rig) SetReadError(port int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[port]; ok {
		s.readErr = err
	}
}

// Time reports accumulated simulated time in seconds.
func (r *Rig) Time() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.t
}

// Advance steps every attached motor forward by dt seconds.
func (r *Rig) Advance(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		s.x = r.integ.Step(s.model, s.x, s.u, r.t, dt)
	}
	r.t += dt
}

// Start runs the physics against the wall clock until Stop. Used by the live
// view; offline callers drive Advance directly.
func (r *Rig) Start(period time.Duration) {
	r.mu.Lock()
	if r.closed != nil {
		r.mu.Unlock()
		return
	}
	r.closed = make(chan struct{})
	done := r.closed
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		tick := time.NewTicker(period)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				r.Advance(period.Seconds())
			}
		}
	}()
}

func (r *Rig) Stop() {
	r.mu.Lock()
	if r.closed == nil {
		r.mu.Unlock()
		return
	}
	close(r.closed)
	r.closed = nil
	r.mu.Unlock()
	r.wg.Wait()
}

// ReadTelemetry implements motor.Driver.
func (r *Rig) ReadTelemetry(port int) (motor.Telemetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[port]
	if !ok {
		return motor.Telemetry{}, fmt.Errorf("sim: no motor on port %d", port)
	}
	if s.readErr != nil {
		return motor.Telemetry{}, s.readErr
	}

	rpm := s.x[StateOmega] * 60 / (2 * math.Pi)
	if r.noise > 0 {
		rpm += r.rng.NormFloat64() * r.noise
	}
	return motor.Telemetry{
		RPM:            rpm,
		PositionCounts: s.x[StateTheta] / (2 * math.Pi) * CountsPerRev,
		VoltageMv:      s.u[CtrlVoltage] * 1000,
		CurrentMa:      s.model.Current(s.x, s.u) * 1000,
		TemperatureC:   s.x[StateTemp],
	}, nil
}

// Actuate implements motor.Driver. Brake and hold modes short the windings
// when the command is zero, coast leaves them open.
func (r *Rig) Actuate(port int, voltageMv float64, brake motor.BrakeMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[port]
	if !ok {
		return fmt.Errorf("sim: no motor on port %d", port)
	}
	s.u[CtrlVoltage] = voltageMv / 1000
	if brake == motor.BrakeCoast {
		s.u[CtrlShorted] = 0
	} else {
		s.u[CtrlShorted] = 1
	}
	return nil
}

// VoltageCeilingMv implements motor.Driver.
func (r *Rig) VoltageCeilingMv(port int) float64 {
	return motor.DefaultVoltageCeilingMv
}
