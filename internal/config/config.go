// Package config loads the process's YAML configuration into plain Go
// structs via viper, following the teacher's reinforcement.FromYaml
// two-step remarshal (bind into an OuterConfig{Kind,Def}, then
// yaml-remarshal Def into the typed struct), generalized here to
// several named top-level keys instead of one TrainingConfig.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/gatecost"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/replay"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/reward"
)

// ErrInvalid is returned when a config file fails validation, either at
// initial load or on a hot-reload attempt.
var ErrInvalid = errors.New("config: invalid configuration")

// GridConfig sizes the chunk grid every other component derives its
// dimensions from (policy_output_size = Size*Size+1).
//
// original_source's decision_gate/components/utils.py hardcoded
// CHUNKS_PER_AXIS = 20; that value is kept here only as Default's
// historical reference, never compiled in as a constant (SPEC_FULL.md §9).
type GridConfig struct {
	Size int `mapstructure:"size"`
}

// DefaultGridConfig returns the axis size spec.md's end-to-end
// scenarios exercise (16), not original_source's historical 20.
func DefaultGridConfig() GridConfig {
	return GridConfig{Size: 16}
}

// EconomyConfig holds the training loop's sampling cadence and replay
// buffer sizing.
type EconomyConfig struct {
	TrainingIntervalMillis int `mapstructure:"trainingIntervalMillis"`
	CheckpointInterval     int `mapstructure:"checkpointInterval"`
	MinBatch               int `mapstructure:"minBatch"`
	BatchSize              int `mapstructure:"batchSize"`
	LearningRate           float64 `mapstructure:"learningRate"`
	ReplayCapacity         int `mapstructure:"replayCapacity"`
}

// DefaultEconomyConfig returns conservative defaults suitable for a
// single-process trainer.
func DefaultEconomyConfig() EconomyConfig {
	return EconomyConfig{
		TrainingIntervalMillis: 200,
		CheckpointInterval:     500,
		MinBatch:               8,
		BatchSize:              32,
		LearningRate:           0.01,
		ReplayCapacity:         10000,
	}
}

// Config is the full bound configuration tree for one process.
type Config struct {
	Grid     GridConfig
	Gate     gatecost.Config
	Reward   reward.Config
	Economy  EconomyConfig
	Replay   replay.Config
}

// Default returns the full default configuration tree.
func Default() Config {
	return Config{
		Grid:    DefaultGridConfig(),
		Gate:    gatecost.DefaultConfig(),
		Reward:  reward.DefaultConfig(),
		Economy: DefaultEconomyConfig(),
		Replay:  replay.DefaultConfig(),
	}
}

// outerConfig mirrors the teacher's OuterConfig{Kind,Def}, generalized
// to hold every named top-level config section.
type outerConfig struct {
	Grid    interface{} `mapstructure:"grid"`
	Gate    interface{} `mapstructure:"gate"`
	Reward  interface{} `mapstructure:"reward"`
	Economy interface{} `mapstructure:"economy"`
	Replay  interface{} `mapstructure:"replay"`
}

// Load reads path as YAML and binds it onto the default configuration,
// overriding only the sections present in the file.
func Load(path string) (Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))

	if err := vp.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return decode(vp)
}

// decode binds an already-populated viper instance onto the default
// configuration tree, the step Load and a file-watcher reload both share.
func decode(vp *viper.Viper) (Config, error) {
	var outer outerConfig
	if err := vp.Unmarshal(&outer); err != nil {
		return Config{}, fmt.Errorf("bind outer config: %w", err)
	}

	cfg := Default()
	if err := remarshalInto(outer.Grid, &cfg.Grid); err != nil {
		return Config{}, err
	}
	if err := remarshalInto(outer.Gate, &cfg.Gate); err != nil {
		return Config{}, err
	}
	if err := remarshalInto(outer.Reward, &cfg.Reward); err != nil {
		return Config{}, err
	}
	if err := remarshalInto(outer.Economy, &cfg.Economy); err != nil {
		return Config{}, err
	}
	if err := remarshalInto(outer.Replay, &cfg.Replay); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// remarshalInto yaml-round-trips a viper-decoded interface{} section
// onto a typed struct, skipping absent sections entirely (leaving
// dst's prior value, i.e. its default, untouched).
func remarshalInto(section interface{}, dst interface{}) error {
	if section == nil {
		return nil
	}
	raw, err := yaml.Marshal(section)
	if err != nil {
		return fmt.Errorf("remarshal config section: %w", err)
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("bind config section: %w", err)
	}
	return nil
}

// Validate checks invariants Load and reload both enforce:
// grid size must be positive, cost function weights non-negative,
// economy timing parameters positive.
func Validate(cfg Config) error {
	if cfg.Grid.Size <= 0 {
		return fmt.Errorf("%w: grid.size must be positive", ErrInvalid)
	}
	if cfg.Gate.WeightSurvival < 0 || cfg.Gate.WeightDisruption < 0 || cfg.Gate.WeightLocation < 0 || cfg.Gate.WeightExploration < 0 {
		return fmt.Errorf("%w: gate weights must be non-negative", ErrInvalid)
	}
	if cfg.Gate.EnergyCost <= 0 || cfg.Gate.CombatCost <= 0 {
		return fmt.Errorf("%w: spawn costs must be positive", ErrInvalid)
	}
	if cfg.Economy.TrainingIntervalMillis <= 0 {
		return fmt.Errorf("%w: economy.trainingIntervalMillis must be positive", ErrInvalid)
	}
	if cfg.Economy.BatchSize <= 0 || cfg.Economy.MinBatch <= 0 {
		return fmt.Errorf("%w: economy batch sizes must be positive", ErrInvalid)
	}
	if cfg.Replay.Capacity <= 0 {
		return fmt.Errorf("%w: replay.capacity must be positive", ErrInvalid)
	}
	return nil
}

// LiveGate holds the hot-reloadable subset of configuration (the
// gate's cost-function tunables) behind an atomic pointer, swapped only
// on successful validation so a bad reload never corrupts the running
// gate's parameters.
type LiveGate struct {
	ptr atomic.Pointer[gatecost.Config]
}

// NewLiveGate seeds a LiveGate with an initial, already-validated config.
func NewLiveGate(initial gatecost.Config) *LiveGate {
	lg := &LiveGate{}
	lg.ptr.Store(&initial)
	return lg
}

// Get returns the currently live gate config.
func (lg *LiveGate) Get() gatecost.Config {
	return *lg.ptr.Load()
}

// Reload validates candidate and, if valid, publishes it as the new
// live config. On failure it leaves the previous config in place and
// returns the validation error.
func (lg *LiveGate) Reload(candidate gatecost.Config) error {
	probe := Config{
		Grid:    DefaultGridConfig(),
		Gate:    candidate,
		Reward:  reward.DefaultConfig(),
		Economy: DefaultEconomyConfig(),
		Replay:  replay.DefaultConfig(),
	}
	if err := Validate(probe); err != nil {
		return err
	}
	lg.ptr.Store(&candidate)
	return nil
}
