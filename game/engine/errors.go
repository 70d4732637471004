package engine

import "errors"

var (
	ErrUnsupportedGameSize = errors.New("unsupported game size")
	ErrEmptyWeightTable    = errors.New("empty spawn weight table")
	ErrInvalidDirection    = errors.New("invalid direction")
	ErrInvariantViolation  = errors.New("grid invariant violated")
	ErrInvalidGameConfig   = errors.New("invalid game config")
	ErrPowerOutOfRange     = errors.New("tile power out of range")
)
