package aimlab

import "math"

// Position is a point on the square canvas (0..CanvasSize on each axis).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Distance(a, b Position) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// AngleToTarget returns the heading from source to target in degrees, in (-180, 180].
// Coincident points give 0.
func AngleToTarget(source, target Position) float64 {
	dx := target.X - source.X
	dy := target.Y - source.Y
	a := RadiansToDegrees(math.Atan2(dy, dx))
	if a == -180 {
		return 180
	}
	return a
}

func DegreesToRadians(d float64) float64 { return d * (math.Pi / 180) }
func RadiansToDegrees(r float64) float64 { return r * (180 / math.Pi) }

// NormalizeAngle wraps an angle into (-180, 180].
func NormalizeAngle(d float64) float64 {
	d = math.Mod(d, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// PointAt returns the point dist units away from origin along angle (degrees).
func PointAt(origin Position, angle, dist float64) Position {
	rad := DegreesToRadians(angle)
	return Position{
		X: origin.X + dist*math.Cos(rad),
		Y: origin.Y + dist*math.Sin(rad),
	}
}
