package aimlab

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrUnknownMode       = errors.New("unknown mode")
)

const MaxRandomness = 20.0

// Settings are the user-tunable parameters of a run. They are validated at the
// boundary and never change while a run is in progress.
type Settings struct {
	Strength   float64 `json:"aimAssistStrength"`
	Randomness float64 `json:"randomnessFactor"`
	BaseDamage float64 `json:"baseDamage"`

	// NormalizeAngles wraps angle differences into (-180, 180] before they are
	// used. Off by default: differences are raw subtractions.
	NormalizeAngles bool `json:"normalizeAngles"`
}

func DefaultSettings() Settings {
	return Settings{Strength: 0.3, Randomness: 5, BaseDamage: 20}
}

func (s Settings) Validate() error {
	switch {
	case math.IsNaN(s.Strength) || s.Strength < 0 || s.Strength > 1:
		return fmt.Errorf("%w: aim assist strength %v outside [0,1]", ErrInvalidSettings, s.Strength)
	case math.IsNaN(s.Randomness) || s.Randomness < 0 || s.Randomness > MaxRandomness:
		return fmt.Errorf("%w: randomness factor %v outside [0,%v]", ErrInvalidSettings, s.Randomness, MaxRandomness)
	case math.IsNaN(s.BaseDamage) || math.IsInf(s.BaseDamage, 0) || s.BaseDamage <= 0:
		return fmt.Errorf("%w: base damage %v must be positive", ErrInvalidSettings, s.BaseDamage)
	}
	return nil
}
