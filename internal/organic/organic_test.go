package organic

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aimlab/internal/aimlab"
)

var sampleReq = aimlab.SuggestRequest{
	Player:     aimlab.Position{X: 50, Y: 50},
	Target:     aimlab.Position{X: 250, Y: 250},
	Strength:   0.3,
	Randomness: 5,
}

func TestRemoteSendsRequestAndDecodesAngle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var got request
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got.PlayerX != 50 || got.TargetY != 250 || got.Strength != 0.3 || got.Randomness != 5 {
			t.Errorf("unexpected request %+v", got)
		}
		_, _ = w.Write([]byte(`{"adjustedAngle": 1.5}`))
	}))
	defer srv.Close()

	v, err := NewRemote(srv.URL, srv.Client()).SuggestAngleAdjustment(context.Background(), sampleReq)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if v != 1.5 {
		t.Fatalf("expected 1.5, got %v", v)
	}
}

func TestRemoteServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, srv.Client()).SuggestAngleAdjustment(context.Background(), sampleReq)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRemoteMissingFieldFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewRemote(srv.URL, srv.Client()).SuggestAngleAdjustment(context.Background(), sampleReq); err == nil {
		t.Fatalf("expected error for missing adjustedAngle")
	}
}

func TestRemoteHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := NewRemote(srv.URL, srv.Client()).SuggestAngleAdjustment(ctx, sampleReq); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("suggestion call did not respect deadline")
	}
}

func TestRemoteWithoutURLIsUnavailable(t *testing.T) {
	_, err := NewRemote("", nil).SuggestAngleAdjustment(context.Background(), sampleReq)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLocalScalesIdealAngle(t *testing.T) {
	v, err := Local{}.SuggestAngleAdjustment(context.Background(), sampleReq)
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if math.Abs(v-45*0.3) > 1e-9 {
		t.Fatalf("expected %v, got %v", 45*0.3, v)
	}
}
