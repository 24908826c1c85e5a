package aimlab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
)

// RecordLister exposes the stored performance records, ordered by mode.
type RecordLister interface {
	List(ctx context.Context) ([]PerformanceRecord, error)
}

type API struct {
	Engine  *Engine
	Records RecordLister
}

func NewAPI(e *Engine, records RecordLister) *API {
	return &API{Engine: e, Records: records}
}

// Register mounts the simulation endpoints on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", a.StateHandler)
	mux.HandleFunc("/api/run", a.RunHandler)
	mux.HandleFunc("/api/stop", a.StopHandler)
	mux.HandleFunc("/api/reset", a.ResetHandler)
	mux.HandleFunc("/api/randomize", a.RandomizeHandler)
	mux.HandleFunc("/api/settings", a.SettingsHandler)
	mux.HandleFunc("/api/records", a.RecordsHandler)
}

func (a *API) StateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, a.Engine.Sim.Snapshot())
}

type runRequest struct {
	Mode string `json:"mode"`
}

// RunHandler starts a run in the requested mode.
func (a *API) RunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	mode, err := ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.Engine.Start(mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, a.Engine.Sim.Snapshot())
}

func (a *API) StopHandler(w http.ResponseWriter, r *http.Request) {
	a.command(w, r, a.Engine.Stop)
}

func (a *API) ResetHandler(w http.ResponseWriter, r *http.Request) {
	a.command(w, r, func() error { return a.Engine.Reset(r.Context()) })
}

func (a *API) RandomizeHandler(w http.ResponseWriter, r *http.Request) {
	a.command(w, r, a.Engine.Randomize)
}

func (a *API) command(w http.ResponseWriter, r *http.Request, fn func() error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := fn(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SettingsHandler reads (GET) or replaces (POST) the run settings.
func (a *API) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Engine.Sim.Settings())
	case http.MethodPost:
		var s Settings
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := a.Engine.UpdateSettings(s); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) RecordsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	recs, err := a.Records.List(r.Context())
	if err != nil {
		log.Error("Failed to list performance records", "err", err)
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []PerformanceRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidSettings), errors.Is(err, ErrUnknownMode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error("Simulation command failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
