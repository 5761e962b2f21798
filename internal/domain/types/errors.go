package types

import "errors"

var (
	ErrUnknownTariff     = errors.New("unknown tariff")
	ErrNoActiveTariff    = errors.New("no active tariff")
	ErrInvalidTariff     = errors.New("invalid tariff")
	ErrTariffLocked      = errors.New("tariff cannot be changed during a trip")
	ErrInvalidTransition = errors.New("invalid meter transition")
	ErrInvalidSample     = errors.New("invalid position sample")
	ErrInvalidVehicle    = errors.New("invalid vehicle data")

	ErrNoReceipt      = errors.New("no settled trip to print")
	ErrInvalidRange   = errors.New("invalid time range")
	ErrNotFound       = errors.New("requested item not found")
	ErrCoordinatorOff = errors.New("meter coordinator is not running")
	ErrRecorderFull   = errors.New("trip recorder queue is full")
	ErrDatabaseFailed = errors.New("database operation failed")
)
