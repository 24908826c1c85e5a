package aimlab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aimlab/internal/protocol"

	"github.com/charmbracelet/log"
)

// FrameRate is the number of simulation frames per second while a run is active.
const FrameRate = 60

// Conn is the outbound half of a spectator connection.
type Conn interface {
	Send(b []byte) error
	Close() error
}

type Spectator struct {
	ID   string
	Conn Conn
}

// Engine drives a Simulation in real time and fans its state out to spectators.
type Engine struct {
	Sim        *Simulation
	Register   chan *Spectator
	Unregister chan *Spectator

	mu         sync.Mutex
	spectators map[*Spectator]bool
	interval   time.Duration
}

func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:        sim,
		Register:   make(chan *Spectator),
		Unregister: make(chan *Spectator),
		spectators: make(map[*Spectator]bool),
		interval:   time.Second / FrameRate,
	}
}

// Run schedules frames until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	go e.handleConnections(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			frame := e.Sim.Tick(ctx, dt)
			if frame.Discarded || (frame.State != StateRunning && frame.Shot == nil) {
				continue
			}
			if frame.Record != nil {
				e.broadcast(protocol.MsgRecord, frame.Record)
			}
			e.BroadcastState()
		}
	}
}

func (e *Engine) handleConnections(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			for sp := range e.spectators {
				_ = sp.Conn.Close()
				delete(e.spectators, sp)
			}
			e.mu.Unlock()
			return
		case sp := <-e.Register:
			e.mu.Lock()
			e.spectators[sp] = true
			e.mu.Unlock()
			e.sendTo(sp, protocol.MsgWelcome, protocol.Welcome{ID: sp.ID})
			e.sendTo(sp, protocol.MsgState, e.Sim.Snapshot())
			log.Debug("Spectator joined", "id", sp.ID)
		case sp := <-e.Unregister:
			e.mu.Lock()
			if _, ok := e.spectators[sp]; ok {
				delete(e.spectators, sp)
				_ = sp.Conn.Close()
			}
			e.mu.Unlock()
			log.Debug("Spectator left", "id", sp.ID)
		}
	}
}

// NumSpectators returns the current number of connected spectators.
func (e *Engine) NumSpectators() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.spectators)
}

func (e *Engine) Start(mode Mode) error {
	if err := e.Sim.Start(mode); err != nil {
		return err
	}
	e.BroadcastState()
	return nil
}

func (e *Engine) Stop() error {
	if err := e.Sim.Stop(); err != nil {
		return err
	}
	e.BroadcastState()
	return nil
}

func (e *Engine) Reset(ctx context.Context) error {
	if err := e.Sim.Reset(ctx); err != nil {
		return err
	}
	e.BroadcastState()
	return nil
}

func (e *Engine) Randomize() error {
	if err := e.Sim.Randomize(); err != nil {
		return err
	}
	e.BroadcastState()
	return nil
}

func (e *Engine) UpdateSettings(s Settings) error {
	if err := e.Sim.UpdateSettings(s); err != nil {
		return err
	}
	e.BroadcastState()
	return nil
}

// Apply executes a client command envelope.
func (e *Engine) Apply(ctx context.Context, env protocol.Envelope) error {
	switch env.T {
	case protocol.MsgStart:
		p, err := protocol.DecodePayload[protocol.StartPayload](env)
		if err != nil {
			return err
		}
		mode, err := ParseMode(p.Mode)
		if err != nil {
			return err
		}
		return e.Start(mode)
	case protocol.MsgStop:
		return e.Stop()
	case protocol.MsgReset:
		return e.Reset(ctx)
	case protocol.MsgRandomize:
		return e.Randomize()
	case protocol.MsgSettings:
		s, err := protocol.DecodePayload[Settings](env)
		if err != nil {
			return err
		}
		return e.UpdateSettings(s)
	}
	return fmt.Errorf("unknown command %q", env.T)
}

func (e *Engine) BroadcastState() {
	e.broadcast(protocol.MsgState, e.Sim.Snapshot())
}

func (e *Engine) broadcast(t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		log.Error("Failed to encode broadcast", "type", t, "err", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for sp := range e.spectators {
		if err := sp.Conn.Send(b); err != nil {
			log.Warn("Dropping spectator", "id", sp.ID, "err", err)
			_ = sp.Conn.Close()
			delete(e.spectators, sp)
		}
	}
}

func (e *Engine) sendTo(sp *Spectator, t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return
	}
	_ = sp.Conn.Send(b)
}
