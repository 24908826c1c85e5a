package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	OrganicAimURL   string
	OrganicAimLocal bool
	SuggestTimeout  time.Duration

	TutorialURL     string
	TutorialAPIKey  string
	TutorialTimeout time.Duration

	AimAssistStrength float64
	RandomnessFactor  float64
	BaseDamage        float64
	NormalizeAngles   bool
}

// InitConfig loads an optional .env file into the process environment.
func InitConfig(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug("No .env file loaded", "err", err)
		return
	}
	log.Info("Loaded environment variables from .env")
}

// GetEnvVariable returns the value of v or an error when it is unset.
func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}
	return b, nil
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	c := Config{
		Port:           envOr("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		OrganicAimURL:  os.Getenv("ORGANIC_AIM_URL"),
		TutorialURL:    os.Getenv("TUTORIAL_URL"),
		TutorialAPIKey: os.Getenv("TUTORIAL_API_KEY"),
	}

	var errs []error
	c.OrganicAimLocal = parseBool("ORGANIC_AIM_LOCAL", false, &errs)
	c.NormalizeAngles = parseBool("NORMALIZE_ANGLES", false, &errs)
	c.SuggestTimeout = parseDuration("SUGGEST_TIMEOUT", 250*time.Millisecond, &errs)
	c.TutorialTimeout = parseDuration("TUTORIAL_TIMEOUT", 30*time.Second, &errs)
	c.AimAssistStrength = parseFloat("AIM_ASSIST_STRENGTH", 0.3, &errs)
	c.RandomnessFactor = parseFloat("RANDOMNESS_FACTOR", 5, &errs)
	c.BaseDamage = parseFloat("BASE_DAMAGE", 20, &errs)

	return c, errors.Join(errs...)
}

func envOr(key, def string) string {
	if v, err := GetEnvVariable(key); err == nil {
		return v
	}
	return def
}

func parseBool(key string, def bool, errs *[]error) bool {
	raw, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func parseFloat(key string, def float64, errs *[]error) float64 {
	raw, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func parseDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
