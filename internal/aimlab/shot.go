package aimlab

import "math"

type Outcome string

const (
	OutcomeHeadshot Outcome = "headshot"
	OutcomeBodyShot Outcome = "body"
	OutcomeMiss     Outcome = "miss"
)

func (o Outcome) Hit() bool { return o == OutcomeHeadshot || o == OutcomeBodyShot }

func (o Outcome) Message() string {
	switch o {
	case OutcomeHeadshot:
		return "HEADSHOT!"
	case OutcomeBodyShot:
		return "Body Shot."
	default:
		return "Missed!"
	}
}

type ShotResult struct {
	Outcome   Outcome `json:"outcome"`
	Damage    float64 `json:"damage"`
	AngleDiff float64 `json:"angleDiff"`
}

// AngleDifference is |a-b|, optionally taken over the shortest arc.
func AngleDifference(a, b float64, normalize bool) float64 {
	d := a - b
	if normalize {
		d = NormalizeAngle(d)
	}
	return math.Abs(d)
}

// ResolveShot classifies a shot by its angular error. Thresholds are checked in
// order and the first match wins.
func ResolveShot(crosshairAngle, targetAngle, baseDamage float64, normalize bool) ShotResult {
	diff := AngleDifference(crosshairAngle, targetAngle, normalize)
	switch {
	case diff < HeadshotThreshold:
		return ShotResult{Outcome: OutcomeHeadshot, Damage: baseDamage * HeadshotMultiplier, AngleDiff: diff}
	case diff < BodyShotThreshold:
		return ShotResult{Outcome: OutcomeBodyShot, Damage: baseDamage * BodyShotMultiplier, AngleDiff: diff}
	default:
		return ShotResult{Outcome: OutcomeMiss, AngleDiff: diff}
	}
}
