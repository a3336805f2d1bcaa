package motor

import "errors"

// Domain errors for the command surface and tick loop.
var (
	// ErrNonFinite indicates a NaN or Inf constant was passed to a setter.
	ErrNonFinite = errors.New("motor: non-finite value")

	// ErrOutOfRange indicates a constant outside its documented range.
	ErrOutOfRange = errors.New("motor: value out of range")

	// ErrClosed indicates the actuator handle has been closed.
	ErrClosed = errors.New("motor: handle closed")

	// ErrStaleDriver indicates telemetry could not be refreshed this tick.
	ErrStaleDriver = errors.New("motor: stale driver telemetry")
)

// ConfigError reports a rejected configuration write. State is left unchanged.
type ConfigError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ConfigError) Error() string {
	return "motor: config " + e.Field + ": " + e.Wrapped.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

func configErr(field string, value float64, wrapped error) error {
	return &ConfigError{Field: field, Value: value, Wrapped: wrapped}
}
