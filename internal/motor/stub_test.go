package motor

import "sync"

// stubDriver is a scriptable driver for unit tests. Telemetry is whatever the
// test last staged; Actuate records the command.
type stubDriver struct {
	mu         sync.Mutex
	tel        Telemetry
	readErr    error
	actErr     error
	ceiling    float64
	lastCmd    float64
	lastBrake  BrakeMode
	actuations int
}

func (d *stubDriver) ReadTelemetry(port int) (Telemetry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return Telemetry{}, d.readErr
	}
	return d.tel, nil
}

func (d *stubDriver) Actuate(port int, voltageMv float64, brake BrakeMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.actErr != nil {
		return d.actErr
	}
	d.lastCmd = voltageMv
	d.lastBrake = brake
	d.actuations++
	return nil
}

func (d *stubDriver) VoltageCeilingMv(port int) float64 {
	if d.ceiling == 0 {
		return DefaultVoltageCeilingMv
	}
	return d.ceiling
}

func (d *stubDriver) setTelemetry(t Telemetry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tel = t
}

func (d *stubDriver) setReadErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readErr = err
}

func (d *stubDriver) setActErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actErr = err
}

func (d *stubDriver) command() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCmd
}

func (d *stubDriver) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.actuations
}

// gainDriver responds instantly with the steady-state speed for the applied
// voltage, rpm = mV / mvPerRPM. Good enough for loop-convergence tests.
type gainDriver struct {
	stubDriver
	mvPerRPM float64
}

func (d *gainDriver) Actuate(port int, voltageMv float64, brake BrakeMode) error {
	if err := d.stubDriver.Actuate(port, voltageMv, brake); err != nil {
		return err
	}
	d.mu.Lock()
	d.tel.RPM = voltageMv / d.mvPerRPM
	d.tel.VoltageMv = voltageMv
	d.mu.Unlock()
	return nil
}
