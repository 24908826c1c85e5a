package aimlab

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"
)

const frame = 10 * time.Millisecond

type fakeSink struct {
	mu      sync.Mutex
	records []PerformanceRecord
	clears  int
	err     error
}

func (f *fakeSink) Put(_ context.Context, rec PerformanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func (f *fakeSink) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.records = nil
	return nil
}

func (f *fakeSink) List(context.Context) ([]PerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PerformanceRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func newTestSim(sink *fakeSink, s Suggester) *Simulation {
	n := 0
	return NewSimulation(Options{
		Suggester: s,
		Sink:      sink,
		Rand:      rand.New(rand.NewSource(7)),
		Now:       func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("r_test_%d", n)
		},
	})
}

func runUntilDone(t *testing.T, s *Simulation, maxFrames int) (Frame, int) {
	t.Helper()
	for i := 1; i <= maxFrames; i++ {
		f := s.Tick(context.Background(), frame)
		if f.State != StateRunning {
			return f, i
		}
	}
	t.Fatalf("run did not finish within %d frames", maxFrames)
	return Frame{}, 0
}

func TestAimlockEndToEnd(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSim(sink, nil)
	if err := s.Start(ModeAimlock); err != nil {
		t.Fatalf("start: %v", err)
	}

	var shots []ShotResult
	var last Frame
	for i := 0; i < 500; i++ {
		last = s.Tick(context.Background(), frame)
		if last.Shot != nil {
			shots = append(shots, *last.Shot)
		}
		if last.State != StateRunning {
			break
		}
	}

	if last.State != StateCompleted {
		t.Fatalf("expected completed, got %s", last.State)
	}
	if len(shots) != 2 {
		t.Fatalf("expected exactly 2 shots, got %d", len(shots))
	}
	for i, sh := range shots {
		if sh.Outcome != OutcomeHeadshot || sh.AngleDiff != 0 {
			t.Fatalf("shot %d: expected perfect headshot, got %+v", i, sh)
		}
	}
	if last.Record == nil {
		t.Fatalf("expected record on completion frame")
	}
	rec := *last.Record
	if rec.Mode != ModeAimlock || rec.ShotsFired != 2 || rec.Accuracy != 100 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.TimeToEliminateMs < 1000 || rec.TimeToEliminateMs > 1100 {
		t.Fatalf("expected time to eliminate around 1000ms, got %d", rec.TimeToEliminateMs)
	}
	if len(sink.records) != 1 || sink.records[0].ID != rec.ID {
		t.Fatalf("expected record delivered to sink, got %+v", sink.records)
	}

	snap := s.Snapshot()
	if snap.Enemy.Health != 0 || snap.Enemy.Alive {
		t.Fatalf("enemy should be dead, got %+v", snap.Enemy)
	}
	if math.Abs(snap.Crosshair.Angle-45) > 1e-9 {
		t.Fatalf("crosshair should lock to 45, got %v", snap.Crosshair.Angle)
	}
	if snap.LastRecord == nil || snap.LastRecord.ID != rec.ID {
		t.Fatalf("snapshot should expose last record")
	}
}

func TestCompletedRunIgnoresFurtherFrames(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSim(sink, nil)
	_ = s.Start(ModeAimlock)
	runUntilDone(t, s, 500)

	for i := 0; i < 200; i++ {
		f := s.Tick(context.Background(), frame)
		if f.Shot != nil || f.Record != nil {
			t.Fatalf("completed run must not fire or re-emit")
		}
	}
	snap := s.Snapshot()
	if snap.ShotsFired != 2 || snap.Enemy.Health != 0 {
		t.Fatalf("state changed after completion: %+v", snap)
	}
	if len(sink.records) != 1 {
		t.Fatalf("termination must trigger once, sink has %d records", len(sink.records))
	}
}

func TestAimlockSnapsAfterOneFrame(t *testing.T) {
	s := newTestSim(&fakeSink{}, nil)
	_ = s.Start(ModeAimlock)
	f := s.Tick(context.Background(), frame)
	want := AngleToTarget(InitialPlayerPos, InitialEnemyPos)
	if f.Angle != want || s.Snapshot().Crosshair.Angle != want {
		t.Fatalf("expected crosshair angle %v, got %v", want, f.Angle)
	}
	if f.Shot != nil {
		t.Fatalf("no shot expected on the first frame")
	}
}

func TestManualAngleUnchanged(t *testing.T) {
	s := newTestSim(&fakeSink{}, nil)
	_ = s.Start(ModeManual)
	before := s.Snapshot().Crosshair
	f := s.Tick(context.Background(), frame)
	if f.Shot != nil {
		t.Fatalf("no shot expected")
	}
	after := s.Snapshot().Crosshair
	if after.Angle != before.Angle || after.Angle != InitialCrosshairAngle {
		t.Fatalf("manual crosshair moved: %v -> %v", before.Angle, after.Angle)
	}
}

func TestManualMissesAndNeverCompletes(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSim(sink, nil)
	_ = s.Start(ModeManual)
	for i := 0; i < 300; i++ {
		s.Tick(context.Background(), frame)
	}
	snap := s.Snapshot()
	if snap.State != StateRunning {
		t.Fatalf("manual run at 90 deg should still be running, got %s", snap.State)
	}
	if snap.ShotsFired == 0 || snap.Hits != 0 {
		t.Fatalf("expected only misses, got shots=%d hits=%d", snap.ShotsFired, snap.Hits)
	}
	if snap.Enemy.Health != InitialHealth {
		t.Fatalf("misses must not damage, health %v", snap.Enemy.Health)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("stopping must not emit a record")
	}
}

func TestAimAssistUsesSuggestion(t *testing.T) {
	var got SuggestRequest
	s := newTestSim(&fakeSink{}, SuggesterFunc(func(_ context.Context, req SuggestRequest) (float64, error) {
		got = req
		return 1, nil
	}))
	_ = s.Start(ModeAimAssist)
	f := s.Tick(context.Background(), frame)

	target := AngleToTarget(InitialPlayerPos, InitialEnemyPos)
	want := InitialCrosshairAngle + (target-InitialCrosshairAngle)*0.3 + 1
	if math.Abs(f.Angle-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, f.Angle)
	}
	if !f.Suggested {
		t.Fatalf("frame should report service suggestion")
	}
	if got.Player != InitialPlayerPos || got.Target != InitialEnemyPos || got.Strength != 0.3 || got.Randomness != 5 {
		t.Fatalf("unexpected suggest request %+v", got)
	}
}

func TestAimAssistSurvivesFailingService(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSim(sink, SuggesterFunc(func(context.Context, SuggestRequest) (float64, error) {
		return 0, errors.New("unavailable")
	}))
	if err := s.UpdateSettings(Settings{Strength: 1, Randomness: 0, BaseDamage: 20}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	_ = s.Start(ModeAimAssist)
	f, _ := runUntilDone(t, s, 500)
	if f.State != StateCompleted {
		t.Fatalf("failed suggestions must not end the run, got %s", f.State)
	}
	if f.Record == nil || f.Record.Accuracy != 100 {
		t.Fatalf("full-strength assist with zero noise should be perfect, got %+v", f.Record)
	}
}

func TestStopDuringSuggestionDiscardsFrame(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := newTestSim(&fakeSink{}, SuggesterFunc(func(context.Context, SuggestRequest) (float64, error) {
		close(entered)
		<-release
		return 3, nil
	}))
	_ = s.Start(ModeAimAssist)

	done := make(chan Frame, 1)
	go func() { done <- s.Tick(context.Background(), frame) }()
	<-entered
	if err := s.Stop(); err != nil {
		t.Fatalf("stop while frame suspended: %v", err)
	}
	close(release)
	f := <-done

	if !f.Discarded {
		t.Fatalf("frame should be discarded after stop")
	}
	snap := s.Snapshot()
	if snap.State != StateStopped || snap.Crosshair.Angle != InitialCrosshairAngle || snap.ElapsedMs != 0 {
		t.Fatalf("discarded frame leaked state: %+v", snap)
	}
}

func TestStateTransitions(t *testing.T) {
	s := newTestSim(&fakeSink{}, nil)
	if err := s.Stop(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stop while idle: expected ErrInvalidTransition, got %v", err)
	}
	if err := s.Start("Wallhack"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if err := s.Start(ModeManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(ModeAimlock); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("start while running: expected ErrInvalidTransition, got %v", err)
	}
	if err := s.Reset(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reset while running: expected ErrInvalidTransition, got %v", err)
	}
	if err := s.Randomize(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("randomize while running: expected ErrInvalidTransition, got %v", err)
	}
	if err := s.UpdateSettings(DefaultSettings()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("settings while running: expected ErrInvalidTransition, got %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", s.State())
	}
	if f := s.Tick(context.Background(), frame); f.State != StateStopped || f.Shot != nil {
		t.Fatalf("stopped sim must not advance")
	}
	if err := s.Start(ModeAimlock); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	if snap := s.Snapshot(); snap.ShotsFired != 0 || snap.Mode != ModeAimlock || snap.ElapsedMs != 0 {
		t.Fatalf("restart should reset counters: %+v", snap)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	sink := &fakeSink{}
	s := newTestSim(sink, nil)
	if err := s.Randomize(); err != nil {
		t.Fatalf("randomize: %v", err)
	}
	_ = s.Start(ModeAimlock)
	runUntilDone(t, s, 500)
	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}
	if snap.Player.Position != InitialPlayerPos || snap.Enemy.Position != InitialEnemyPos {
		t.Fatalf("positions not restored: %+v %+v", snap.Player.Position, snap.Enemy.Position)
	}
	if snap.Enemy.Health != InitialHealth || !snap.Enemy.Alive {
		t.Fatalf("enemy not restored: %+v", snap.Enemy)
	}
	if snap.Crosshair.Angle != InitialCrosshairAngle || snap.Crosshair.Position != PointAt(InitialPlayerPos, InitialCrosshairAngle, StandoffDistance) {
		t.Fatalf("crosshair not restored: %+v", snap.Crosshair)
	}
	if snap.ShotsFired != 0 || snap.LastRecord != nil {
		t.Fatalf("stats not cleared: %+v", snap)
	}
	if len(snap.Log) != 1 || snap.Log[0] != "Simulation reset." {
		t.Fatalf("unexpected log after reset: %v", snap.Log)
	}
	if sink.clears != 1 || len(sink.records) != 0 {
		t.Fatalf("record collection should be cleared, clears=%d records=%d", sink.clears, len(sink.records))
	}
}

func TestRandomizeStaysOnCanvas(t *testing.T) {
	s := newTestSim(&fakeSink{}, nil)
	for i := 0; i < 20; i++ {
		if err := s.Randomize(); err != nil {
			t.Fatalf("randomize: %v", err)
		}
		snap := s.Snapshot()
		for _, p := range []Position{snap.Player.Position, snap.Enemy.Position} {
			if p.X < 0 || p.X > CanvasSize || p.Y < 0 || p.Y > CanvasSize {
				t.Fatalf("position %v off canvas", p)
			}
		}
		if snap.Enemy.Health != InitialHealth || !snap.Enemy.Alive {
			t.Fatalf("randomize should restore the enemy")
		}
	}
}

func TestStartKeepsRandomizedPositions(t *testing.T) {
	s := newTestSim(&fakeSink{}, nil)
	_ = s.Randomize()
	placed := s.Snapshot()
	_ = s.Start(ModeAimlock)
	f := s.Tick(context.Background(), frame)
	if want := AngleToTarget(placed.Player.Position, placed.Enemy.Position); f.Angle != want {
		t.Fatalf("aimlock should track randomized enemy: got %v want %v", f.Angle, want)
	}
}

func TestSinkFailureDoesNotUndoCompletion(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	s := newTestSim(sink, nil)
	_ = s.Start(ModeAimlock)
	f, _ := runUntilDone(t, s, 500)
	if f.State != StateCompleted || s.State() != StateCompleted {
		t.Fatalf("expected completed despite sink error, got %s", f.State)
	}
}

func TestJournalRecordsRun(t *testing.T) {
	s := newTestSim(&fakeSink{}, nil)
	_ = s.Start(ModeAimlock)
	runUntilDone(t, s, 500)
	log := s.Snapshot().Log
	if len(log) != 4 {
		t.Fatalf("expected 4 journal lines, got %v", log)
	}
	if log[3] != "Starting Aimlock simulation..." || log[2] != "[Aimlock] Fired! HEADSHOT!" {
		t.Fatalf("unexpected journal %v", log)
	}
	if log[0] != "[Aimlock] Enemy eliminated in 1020ms. Accuracy: 100.0%" {
		t.Fatalf("unexpected completion line %q", log[0])
	}
}
