package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Engine holds the tunable constants of the lifecycle engine. The defaults are
// the reference-deployment values; override via a YAML file pointed to by
// ENGINE_CONFIG. Treat the thresholds as product decisions, not code.
type Engine struct {
	// Distinct verifiers needed before a problem's location is considered verified.
	VerificationThreshold int `yaml:"verification_threshold"`

	// Maximum spread (meters) among verification points for the "accurate" label.
	AccuracyRadiusM float64 `yaml:"accuracy_radius_m"`

	// Inbound dedup window and sweep cadence, in seconds.
	DedupWindowSeconds int `yaml:"dedup_window_seconds"`
	DedupSweepSeconds  int `yaml:"dedup_sweep_seconds"`

	// Gap between outbound notifications, in milliseconds, and the fanout
	// queue capacity.
	FanoutDelayMillis int `yaml:"fanout_delay_millis"`
	FanoutQueueSize   int `yaml:"fanout_queue_size"`
}

func Defaults() Engine {
	return Engine{
		VerificationThreshold: 3,
		AccuracyRadiusM:       50,
		DedupWindowSeconds:    10,
		DedupSweepSeconds:     30,
		FanoutDelayMillis:     1000,
		FanoutQueueSize:       64,
	}
}

// Load reads the engine config from the file named by ENGINE_CONFIG, falling
// back to the defaults when unset. A missing or malformed file is fatal: a
// deployment that asks for explicit tuning should not run on silent defaults.
func Load() Engine {
	cfg := Defaults()

	path := os.Getenv("ENGINE_CONFIG")
	if path == "" {
		return cfg
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("[config] read %s: %v", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Fatalf("[config] parse %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[config] invalid %s: %v", path, err)
	}

	log.Printf("[config] loaded engine config from %s", path)
	return cfg
}

func (e Engine) Validate() error {
	if e.VerificationThreshold < 1 {
		return fmt.Errorf("verification_threshold must be >= 1, got %d", e.VerificationThreshold)
	}
	if e.AccuracyRadiusM <= 0 {
		return fmt.Errorf("accuracy_radius_m must be positive, got %v", e.AccuracyRadiusM)
	}
	if e.DedupWindowSeconds < 1 || e.DedupSweepSeconds < 1 {
		return fmt.Errorf("dedup window/sweep must be >= 1s")
	}
	if e.FanoutDelayMillis < 0 || e.FanoutQueueSize < 1 {
		return fmt.Errorf("fanout delay must be >= 0 and queue size >= 1")
	}
	return nil
}

func (e Engine) DedupWindow() time.Duration { return time.Duration(e.DedupWindowSeconds) * time.Second }
func (e Engine) DedupSweep() time.Duration  { return time.Duration(e.DedupSweepSeconds) * time.Second }
func (e Engine) FanoutDelay() time.Duration {
	return time.Duration(e.FanoutDelayMillis) * time.Millisecond
}
