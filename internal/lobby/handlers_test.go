package lobby

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aimlab/internal/aimlab"
)

type fixedRecords struct {
	recs []aimlab.PerformanceRecord
	err  error
}

func (f fixedRecords) List(context.Context) ([]aimlab.PerformanceRecord, error) { return f.recs, f.err }

func TestLobbyRendersModesAndRecords(t *testing.T) {
	sim := aimlab.NewSimulation(aimlab.Options{})
	recs := fixedRecords{recs: []aimlab.PerformanceRecord{{ID: "r1", Mode: aimlab.ModeAimlock, TimeToEliminateMs: 1016, ShotsFired: 2, Accuracy: 100}}}

	rec := httptest.NewRecorder()
	NewHandler(sim, recs)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Manual", "Aim Assist", "Aimlock", "1016", "100.00", "Simulation ready."} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestLobbyRendersWhenRecordsFail(t *testing.T) {
	sim := aimlab.NewSimulation(aimlab.Options{})
	rec := httptest.NewRecorder()
	NewHandler(sim, fixedRecords{err: errors.New("db down")})(rec, httptest.NewRequest(http.MethodGet, "/?lang=ua", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Журнал симуляції") {
		t.Fatalf("expected ukrainian texts")
	}
}

func TestLobbyUnknownPath(t *testing.T) {
	sim := aimlab.NewSimulation(aimlab.Options{})
	rec := httptest.NewRecorder()
	NewHandler(sim, fixedRecords{})(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
