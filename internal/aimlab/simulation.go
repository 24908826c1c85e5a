package aimlab

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
)

// RecordSink is the externally owned collection of performance records.
// Put replaces any earlier record with the same mode.
type RecordSink interface {
	Put(ctx context.Context, rec PerformanceRecord) error
	Clear(ctx context.Context) error
}

type Options struct {
	Settings       Settings
	Suggester      Suggester
	SuggestTimeout time.Duration
	Sink           RecordSink
	Rand           *rand.Rand
	Now            func() time.Time
	NewID          func() string
}

// Frame describes what one Tick did.
type Frame struct {
	State       State              `json:"state"`
	Angle       float64            `json:"angle"`
	TargetAngle float64            `json:"targetAngle"`
	Offset      float64            `json:"offset"`
	Suggested   bool               `json:"suggested"`
	Shot        *ShotResult        `json:"shot,omitempty"`
	Record      *PerformanceRecord `json:"record,omitempty"`
	Discarded   bool               `json:"-"`
}

// Snapshot is a copy of the simulation safe to hand to observers.
type Snapshot struct {
	State      State              `json:"state"`
	Mode       Mode               `json:"mode,omitempty"`
	Player     Entity             `json:"player"`
	Enemy      Entity             `json:"enemy"`
	Crosshair  Crosshair          `json:"crosshair"`
	ShotsFired int                `json:"shotsFired"`
	Hits       int                `json:"hits"`
	ElapsedMs  int64              `json:"elapsedMs"`
	Settings   Settings           `json:"settings"`
	Log        []string           `json:"log"`
	LastRecord *PerformanceRecord `json:"lastRecord,omitempty"`
}

// Simulation owns the entities, crosshair and counters of the current run.
// Every mutation goes through its methods; frames are serialised by frameMu and
// the rest of the state is guarded by mu.
type Simulation struct {
	frameMu sync.Mutex
	mu      sync.Mutex

	suggester      Suggester
	suggestTimeout time.Duration
	sink           RecordSink
	rng            *rand.Rand
	now            func() time.Time
	newID          func() string

	settings  Settings
	state     State
	mode      Mode
	gen       int
	player    Entity
	enemy     Entity
	crosshair Crosshair
	stats     RunStats
	clock     time.Duration
	lastShot  time.Duration
	log       journal
	last      *PerformanceRecord
}

func NewSimulation(opts Options) *Simulation {
	s := &Simulation{
		suggester:      opts.Suggester,
		suggestTimeout: opts.SuggestTimeout,
		sink:           opts.Sink,
		rng:            opts.Rand,
		now:            opts.Now,
		newID:          opts.NewID,
		settings:       opts.Settings,
		state:          StateIdle,
	}
	if s.suggestTimeout == 0 {
		s.suggestTimeout = DefaultSuggestTimeout
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return "r_" + uuid.NewString() }
	}
	if s.settings == (Settings{}) {
		s.settings = DefaultSettings()
	}
	s.player = newEntity("Player", InitialPlayerPos)
	s.enemy = newEntity("Enemy", InitialEnemyPos)
	s.aimAt(InitialCrosshairAngle)
	s.log.reset("Simulation ready.")
	return s
}

func (s *Simulation) aimAt(angle float64) {
	s.crosshair = Crosshair{Angle: angle, Position: PointAt(s.player.Position, angle, StandoffDistance)}
}

// Start begins a run under mode. Player and enemy keep their current positions;
// health, crosshair, counters and the run clock are reset.
func (s *Simulation) Start(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return fmt.Errorf("%w: start while running", ErrInvalidTransition)
	}

	s.gen++
	s.mode = mode
	s.state = StateRunning
	s.player = newEntity(s.player.Name, s.player.Position)
	s.enemy = newEntity(s.enemy.Name, s.enemy.Position)
	s.aimAt(InitialCrosshairAngle)
	s.clock = 0
	s.lastShot = 0
	s.stats = RunStats{StartedAt: s.clock}
	s.log.reset()
	s.log.add(fmt.Sprintf("Starting %s simulation...", mode))
	log.Info("Run started", "mode", mode, "run", s.gen)
	return nil
}

// Stop cancels the active run without emitting a record.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return fmt.Errorf("%w: stop while %s", ErrInvalidTransition, s.state)
	}
	s.state = StateStopped
	s.log.add("Simulation stopped.")
	log.Info("Run stopped", "mode", s.mode, "run", s.gen, "shots", s.stats.ShotsFired)
	return nil
}

// Reset restores the documented initial entities and crosshair and clears the
// record collection. It is refused while a run is active.
func (s *Simulation) Reset(ctx context.Context) error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return fmt.Errorf("%w: reset while running", ErrInvalidTransition)
	}

	s.state = StateIdle
	s.mode = ""
	s.player = newEntity("Player", InitialPlayerPos)
	s.enemy = newEntity("Enemy", InitialEnemyPos)
	s.aimAt(InitialCrosshairAngle)
	s.stats = RunStats{}
	s.clock = 0
	s.lastShot = 0
	s.last = nil
	s.log.reset("Simulation reset.")
	if s.sink != nil {
		if err := s.sink.Clear(ctx); err != nil {
			log.Error("Failed to clear performance records", "err", err)
			return fmt.Errorf("clear records: %w", err)
		}
	}
	log.Info("Simulation reset")
	return nil
}

// Randomize scatters player and enemy over the canvas and restores the enemy.
func (s *Simulation) Randomize() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return fmt.Errorf("%w: randomize while running", ErrInvalidTransition)
	}
	s.player.Position = Position{X: s.rng.Float64() * CanvasSize, Y: s.rng.Float64() * CanvasSize}
	s.enemy = newEntity(s.enemy.Name, Position{X: s.rng.Float64() * CanvasSize, Y: s.rng.Float64() * CanvasSize})
	s.aimAt(s.crosshair.Angle)
	s.log.add("Player and enemy positions randomized.")
	return nil
}

func (s *Simulation) UpdateSettings(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return fmt.Errorf("%w: settings change while running", ErrInvalidTransition)
	}
	s.settings = next
	return nil
}

func (s *Simulation) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:      s.state,
		Mode:       s.mode,
		Player:     s.player,
		Enemy:      s.enemy,
		Crosshair:  s.crosshair,
		ShotsFired: s.stats.ShotsFired,
		Hits:       s.stats.Hits,
		ElapsedMs:  s.clock.Milliseconds(),
		Settings:   s.settings,
		Log:        s.log.copy(),
	}
	if s.last != nil {
		rec := *s.last
		snap.LastRecord = &rec
	}
	return snap
}

// Tick advances the active run by dt and performs one frame. It is a no-op
// outside the running state. In AimAssist mode the frame waits on the
// suggester; if the run was stopped or restarted meanwhile, the frame is
// dropped without committing anything.
func (s *Simulation) Tick(ctx context.Context, dt time.Duration) Frame {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	s.mu.Lock()
	if s.state != StateRunning {
		st := s.state
		s.mu.Unlock()
		return Frame{State: st}
	}
	if !s.enemy.Alive {
		s.state = StateStopped
		s.log.add("Simulation stopped.")
		s.mu.Unlock()
		return Frame{State: StateStopped}
	}
	gen := s.gen
	mode := s.mode
	settings := s.settings
	player, enemy := s.player.Position, s.enemy.Position
	current := s.crosshair.Angle
	s.mu.Unlock()

	target := AngleToTarget(player, enemy)
	var offset float64
	var suggested bool
	if mode == ModeAimAssist {
		offset, suggested = suggest(ctx, s.suggester, SuggestRequest{
			Player:     player,
			Target:     enemy,
			Strength:   settings.Strength,
			Randomness: settings.Randomness,
		}, s.suggestTimeout, s.rng)
		if !suggested {
			log.Debug("Organic aim unavailable, using fallback", "offset", offset)
		}
	}
	next := NextAngle(current, target, mode, settings.Strength, offset, settings.NormalizeAngles)

	s.mu.Lock()
	if s.state != StateRunning || s.gen != gen {
		st := s.state
		s.mu.Unlock()
		return Frame{State: st, Discarded: true}
	}
	s.clock += dt
	s.aimAt(next)
	frame := Frame{Angle: next, TargetAngle: target, Offset: offset, Suggested: suggested}
	if s.clock-s.lastShot > ShootInterval {
		shot := s.fire(target)
		s.lastShot = s.clock
		frame.Shot = &shot
	}
	frame.State = s.state
	if frame.State == StateCompleted && s.last != nil {
		rec := *s.last
		frame.Record = &rec
	}
	s.mu.Unlock()

	if frame.Record != nil && s.sink != nil {
		if err := s.sink.Put(ctx, *frame.Record); err != nil {
			log.Error("Failed to store performance record", "mode", frame.Record.Mode, "err", err)
		}
	}
	return frame
}

// fire resolves one shot against the enemy. Caller holds mu.
func (s *Simulation) fire(targetAngle float64) ShotResult {
	res := ResolveShot(s.crosshair.Angle, targetAngle, s.settings.BaseDamage, s.settings.NormalizeAngles)
	s.stats.Record(res.Outcome)
	s.log.add(fmt.Sprintf("[%s] Fired! %s", s.mode, res.Outcome.Message()))
	log.Debug("Shot fired", "mode", s.mode, "outcome", res.Outcome, "diff", res.AngleDiff, "damage", res.Damage)

	if s.enemy.ApplyDamage(res.Damage) {
		rec := s.stats.Summary(s.newID(), s.mode, s.clock, s.now())
		s.last = &rec
		s.state = StateCompleted
		s.log.add(fmt.Sprintf("[%s] Enemy eliminated in %dms. Accuracy: %.1f%%", s.mode, rec.TimeToEliminateMs, rec.Accuracy))
		log.Info("Run completed", "mode", s.mode, "run", s.gen, "ms", rec.TimeToEliminateMs, "shots", rec.ShotsFired, "accuracy", rec.Accuracy)
	}
	return res
}
