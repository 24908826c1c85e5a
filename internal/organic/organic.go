// Package organic provides the organic-aim suggesters consulted in Aim Assist mode.
package organic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"aimlab/internal/aimlab"
)

var ErrUnavailable = errors.New("organic aim service unavailable")

type request struct {
	PlayerX    float64 `json:"playerX"`
	PlayerY    float64 `json:"playerY"`
	TargetX    float64 `json:"targetX"`
	TargetY    float64 `json:"targetY"`
	Strength   float64 `json:"aimAssistStrength"`
	Randomness float64 `json:"randomnessFactor"`
}

type response struct {
	AdjustedAngle *float64 `json:"adjustedAngle"`
}

// Remote asks an HTTP endpoint for the adjustment.
type Remote struct {
	URL    string
	Client *http.Client
}

func NewRemote(url string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{URL: url, Client: client}
}

func (r *Remote) SuggestAngleAdjustment(ctx context.Context, req aimlab.SuggestRequest) (float64, error) {
	if r == nil || r.URL == "" {
		return 0, ErrUnavailable
	}
	body, err := json.Marshal(request{
		PlayerX:    req.Player.X,
		PlayerY:    req.Player.Y,
		TargetX:    req.Target.X,
		TargetY:    req.Target.Y,
		Strength:   req.Strength,
		Randomness: req.Randomness,
	})
	if err != nil {
		return 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode adjustment: %w", err)
	}
	if out.AdjustedAngle == nil {
		return 0, fmt.Errorf("decode adjustment: missing adjustedAngle")
	}
	v := *out.AdjustedAngle
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("decode adjustment: non-finite angle")
	}
	return v, nil
}

// Local computes the adjustment in process: the ideal heading to the target
// scaled by the assist strength.
type Local struct{}

func (Local) SuggestAngleAdjustment(ctx context.Context, req aimlab.SuggestRequest) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return aimlab.AngleToTarget(req.Player, req.Target) * req.Strength, nil
}
