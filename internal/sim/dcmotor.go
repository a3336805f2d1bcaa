package sim

import (
	"math"

	"github.com/calder-labs/motorcore/internal/motor"
)

// DCMotor state layout and control layout.
const (
	StateOmega = 0 // shaft speed, rad/s
	StateTheta = 1 // shaft angle, rad
	StateTemp  = 2 // winding temperature, degC

	CtrlVoltage = 0 // applied terminal voltage, V
	CtrlShorted = 1 // >0.5 means terminals shorted when unpowered (electrical braking)
)

// DCMotor is a brushed DC motor with a gearbox, winding self-heating and a
// constant friction load. Positive voltage spins the output shaft forward.
type DCMotor struct {
	ResistanceOhm float64
	KtNmPerA      float64 // torque constant
	KeVsPerRad    float64 // back-EMF constant
	InertiaKgM2   float64
	DampingNms    float64 // viscous, Nm per rad/s
	LoadTorqueNm  float64 // dry friction opposing motion

	ThermalMassJPerC float64
	CoolingWPerC     float64
	AmbientC         float64
}

// NewDCMotor returns a motor whose free speed at full voltage matches the
// gearset's rated max RPM, which keeps the default feedforward gain honest.
func NewDCMotor(g motor.Gearset) *DCMotor {
	freeRadPerS := g.MaxRPM() * 2 * math.Pi / 60
	ke := motor.DefaultVoltageCeilingMv / 1000 / freeRadPerS
	return &DCMotor{
		ResistanceOhm:    2.0,
		KtNmPerA:         ke, // SI units make Kt and Ke numerically equal
		KeVsPerRad:       ke,
		InertiaKgM2:      0.002,
		DampingNms:       0.0005,
		LoadTorqueNm:     0.01,
		ThermalMassJPerC: 40,
		CoolingWPerC:     0.5,
		AmbientC:         25,
	}
}

func (m *DCMotor) StateDim() int   { return 3 }
func (m *DCMotor) ControlDim() int { return 2 }

// Current returns the winding current in amps for a given state and input.
// An unpowered open circuit carries none; a shorted one regenerates.
func (m *DCMotor) Current(x State, u Control) float64 {
	v := u[CtrlVoltage]
	if v == 0 && u[CtrlShorted] < 0.5 {
		return 0
	}
	return (v - m.KeVsPerRad*x[StateOmega]) / m.ResistanceOhm
}

func (m *DCMotor) Derivative(x State, u Control, t float64) State {
	omega := x[StateOmega]
	i := m.Current(x, u)

	torque := m.KtNmPerA*i - m.DampingNms*omega
	if omega != 0 {
		torque -= math.Copysign(m.LoadTorqueNm, omega)
	}
	alpha := torque / m.InertiaKgM2

	heat := i * i * m.ResistanceOhm
	tempDot := (heat - m.CoolingWPerC*(x[StateTemp]-m.AmbientC)) / m.ThermalMassJPerC

	return State{alpha, omega, tempDot}
}

// InitialState returns a motor at rest at ambient temperature.
func (m *DCMotor) InitialState() State {
	return State{0, 0, m.AmbientC}
}
