package aimlab

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// DefaultSuggestTimeout bounds a single organic-aim call.
const DefaultSuggestTimeout = 250 * time.Millisecond

type SuggestRequest struct {
	Player     Position
	Target     Position
	Strength   float64
	Randomness float64
}

// Suggester produces the organic offset added on top of the assisted correction.
type Suggester interface {
	SuggestAngleAdjustment(ctx context.Context, req SuggestRequest) (float64, error)
}

// SuggesterFunc adapts a plain function to Suggester.
type SuggesterFunc func(ctx context.Context, req SuggestRequest) (float64, error)

func (f SuggesterFunc) SuggestAngleAdjustment(ctx context.Context, req SuggestRequest) (float64, error) {
	return f(ctx, req)
}

// NextAngle applies the aim policy for one frame. For AimAssist the suggestion
// is added on top of the strength-scaled correction, not blended with it.
func NextAngle(current, target float64, mode Mode, strength, suggestion float64, normalize bool) float64 {
	switch mode {
	case ModeAimlock:
		return target
	case ModeAimAssist:
		diff := target - current
		if normalize {
			diff = NormalizeAngle(diff)
		}
		return current + diff*strength + suggestion
	default:
		return current
	}
}

// FallbackOffset draws uniformly from [-randomness, randomness].
func FallbackOffset(rng *rand.Rand, randomness float64) float64 {
	return (rng.Float64()*2 - 1) * randomness
}

// suggest asks s for an offset and substitutes the bounded fallback when the
// call fails, times out or returns garbage. It never returns an error.
func suggest(ctx context.Context, s Suggester, req SuggestRequest, timeout time.Duration, rng *rand.Rand) (float64, bool) {
	if s == nil {
		return FallbackOffset(rng, req.Randomness), false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := s.SuggestAngleAdjustment(ctx, req)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return FallbackOffset(rng, req.Randomness), false
	}
	return v, true
}
