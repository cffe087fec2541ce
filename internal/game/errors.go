package game

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrBadStep   = errors.New("invalid time step")
	ErrBadShape  = errors.New("invalid shape")
	ErrBadParams = errors.New("invalid params")
)

func paramError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrBadParams, field, msg)
}

// ValidateStep must be checked by callers before Tick. The simulator itself
// trusts dt.
func ValidateStep(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrBadStep, dt)
	}
	if dt <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrBadStep, dt)
	}
	return nil
}
