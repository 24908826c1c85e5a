package aimlab

import (
	"fmt"
	"strings"
	"time"
)

const (
	CanvasSize            = 500.0
	InitialHealth         = 100.0
	InitialCrosshairAngle = 90.0
	StandoffDistance      = 100.0
	ShootInterval         = 500 * time.Millisecond

	HeadshotThreshold  = 5.0
	BodyShotThreshold  = 20.0
	HeadshotMultiplier = 2.5
	BodyShotMultiplier = 1.0
)

var (
	InitialPlayerPos = Position{X: 50, Y: 50}
	InitialEnemyPos  = Position{X: 250, Y: 250}
)

// Mode selects the aim policy for a run.
type Mode string

const (
	ModeManual    Mode = "Manual"
	ModeAimAssist Mode = "Aim Assist"
	ModeAimlock   Mode = "Aimlock"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeManual, ModeAimAssist, ModeAimlock}

// ParseMode accepts the display names and their loose spellings
// ("aim_assist", "AimAssist", "aim-assist").
func ParseMode(raw string) (Mode, error) {
	key := strings.ToLower(raw)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "manual":
		return ModeManual, nil
	case "aimassist":
		return ModeAimAssist, nil
	case "aimlock":
		return ModeAimlock, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

func (m Mode) Valid() bool {
	switch m {
	case ModeManual, ModeAimAssist, ModeAimlock:
		return true
	}
	return false
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type Entity struct {
	Name      string   `json:"name"`
	Position  Position `json:"position"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
	Alive     bool     `json:"isAlive"`
}

func newEntity(name string, pos Position) Entity {
	return Entity{Name: name, Position: pos, Health: InitialHealth, MaxHealth: InitialHealth, Alive: true}
}

// ApplyDamage subtracts damage, flooring health at zero. It reports true only
// on the call that takes the entity from alive to dead; a dead entity is left untouched.
func (e *Entity) ApplyDamage(damage float64) bool {
	if !e.Alive {
		return false
	}
	e.Health -= damage
	if e.Health < 0 {
		e.Health = 0
	}
	if e.Health > 0 {
		return false
	}
	e.Alive = false
	return true
}

type Crosshair struct {
	Angle    float64  `json:"angle"`
	Position Position `json:"position"`
}

// PerformanceRecord summarises one completed run.
type PerformanceRecord struct {
	ID                string    `json:"id"`
	Mode              Mode      `json:"mode"`
	TimeToEliminateMs int64     `json:"timeToEliminate"`
	ShotsFired        int       `json:"shotsFired"`
	Accuracy          float64   `json:"accuracy"`
	CreatedAt         time.Time `json:"createdAt"`
}
