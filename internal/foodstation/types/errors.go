package types

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation error")
	ErrNoCapacity             = errors.New("no empty rack available")
	ErrNoInventory            = errors.New("no filled rack available")
	ErrSensorAmbiguous        = errors.New("sensor reading is between thresholds")
	ErrWriteConflict          = errors.New("rack was modified concurrently")
	ErrActuatorUnacknowledged = errors.New("door command not acknowledged by device")

	ErrUnauthorized = errors.New("credential not recognised")
	ErrForbidden    = errors.New("operation requires an admin")
)
