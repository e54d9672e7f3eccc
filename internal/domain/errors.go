package domain

import "errors"

// Domain errors - shared across all layers of the application.

// Vehicle errors
var (
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrVehicleAlreadyExists = errors.New("vehicle already exists")
	ErrInvalidRegistration  = errors.New("invalid registration number")
	ErrInvalidVehicleType   = errors.New("invalid vehicle type")
	ErrInvalidVehicleData   = errors.New("invalid vehicle data")
)

// Toll errors
var (
	ErrTollNotFound      = errors.New("toll not found")
	ErrTollAlreadyExists = errors.New("toll already exists")
	ErrBoothNotFound     = errors.New("booth not found at toll")
	ErrInvalidTollData   = errors.New("invalid toll data")
	ErrInvalidMetric     = errors.New("invalid leaderboard metric")
)

// Pass errors
var (
	ErrPassNotFound     = errors.New("pass not found")
	ErrInvalidPassType  = errors.New("invalid pass type")
	ErrInvalidPassData  = errors.New("invalid pass data")
	ErrNoValidPass      = errors.New("no valid pass found")
	ErrActivePassExists = errors.New("vehicle already has an active pass at this toll")

	// Invariant violations. These mean candidate filtering is broken and
	// must never be masked as normal denials.
	ErrPassAlreadyActivated = errors.New("pass already activated")
	ErrNoUsesRemaining      = errors.New("pass has no uses remaining")
)

// Transaction errors
var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidTransactionData = errors.New("invalid transaction data")
)

// Repository errors
var (
	ErrSaveConflict = errors.New("save conflict: stale pass version")
)

// General errors
var (
	ErrInternal   = errors.New("internal server error")
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)
