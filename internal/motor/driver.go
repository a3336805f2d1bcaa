package motor

// Driver is the hardware boundary consumed by the control cycle. Both calls
// must return quickly relative to the tick period; failures are absorbed
// fail-soft by the loop rather than propagated to callers.
type Driver interface {
	ReadTelemetry(port int) (Telemetry, error)
	Actuate(port int, voltageMv float64, brake BrakeMode) error

	// VoltageCeilingMv reports the absolute command ceiling for the port.
	// Queried once at handle construction and cached.
	VoltageCeilingMv(port int) float64
}
