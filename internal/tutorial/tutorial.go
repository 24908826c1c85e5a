// Package tutorial answers free-form questions about aiming techniques.
package tutorial

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

const (
	MinTopicLength = 3
	FailureMessage = "Sorry, there was an error generating the tutorial. Please try again."
)

var (
	ErrTopicTooShort = errors.New("topic must be at least 3 characters")
	ErrNotConfigured = errors.New("tutorial generator not configured")
)

// Generator produces tutorial prose for a topic.
type Generator interface {
	GenerateTutorial(ctx context.Context, topic string) (string, error)
}

// Remote calls a text generation endpoint over HTTP.
type Remote struct {
	URL    string
	APIKey string
	Client *http.Client
}

func (r *Remote) GenerateTutorial(ctx context.Context, topic string) (string, error) {
	if r == nil || r.URL == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(map[string]string{"topic": topic})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("tutorial service: status %d", resp.StatusCode)
	}

	var out struct {
		TutorialContent string `json:"tutorialContent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode tutorial: %w", err)
	}
	if strings.TrimSpace(out.TutorialContent) == "" {
		return "", errors.New("tutorial service returned empty content")
	}
	return out.TutorialContent, nil
}

// Service validates topics and shields callers from generator failures.
type Service struct {
	Generator Generator
	Timeout   time.Duration
}

func NewService(g Generator, timeout time.Duration) *Service {
	return &Service{Generator: g, Timeout: timeout}
}

// Get returns the tutorial for topic. Generator failures are replaced with
// FailureMessage; only an invalid topic is reported as an error.
func (s *Service) Get(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) < MinTopicLength {
		return "", ErrTopicTooShort
	}
	if s.Generator == nil {
		log.Warn("Tutorial requested but no generator configured", "topic", topic)
		return FailureMessage, nil
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	content, err := s.Generator.GenerateTutorial(ctx, topic)
	if err != nil {
		log.Error("Error fetching tutorial", "topic", topic, "err", err)
		return FailureMessage, nil
	}
	return content, nil
}

type tutorialRequest struct {
	Topic string `json:"topic"`
}

type tutorialResponse struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

func (s *Service) Handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tutorialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	content, err := s.Get(r.Context(), req.Topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tutorialResponse{Topic: strings.TrimSpace(req.Topic), Content: content})
}
