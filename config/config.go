// config holds the immutable simulation and training parameters. Components take
// the section they need by value at construction, so nothing reads ambient globals.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Kind is the expected value of the config file's outer 'kind' key.
const Kind = "sandcar"

// NOTE: viper lowercases every key it reads, nested keys included, before they are
// re-marshalled for yaml. All yaml tags below are therefore lowercase; the file itself
// may use any casing.

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Config is the complete parameter set for a run.
type Config struct {
	Field    FieldConfig    `yaml:"field"`
	Vehicle  VehicleConfig  `yaml:"vehicle"`
	Sensing  SensingConfig  `yaml:"sensing"`
	Goal     GoalConfig     `yaml:"goal"`
	Reward   RewardConfig   `yaml:"reward"`
	Loop     LoopConfig     `yaml:"loop"`
	Agent    AgentConfig    `yaml:"agent"`
	Training TrainingConfig `yaml:"training"`
}

// FieldConfig is the playable area and the sand brush.
type FieldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// BrushHalfWidth is the half-width of the square stamped per stroke sample.
	BrushHalfWidth int `yaml:"brushhalfwidth"`
}

type VehicleConfig struct {
	NormalSpeed   float64 `yaml:"normalspeed"`
	SlowedSpeed   float64 `yaml:"slowedspeed"`
	ProbeDistance float64 `yaml:"probedistance"`
	// ProbeAngle is the side probes' offset from the heading, in degrees.
	ProbeAngle float64 `yaml:"probeangle"`
	StartX     float64 `yaml:"startx"`
	StartY     float64 `yaml:"starty"`
}

type SensingConfig struct {
	// HalfWidth of the square window summed around each probe. The reading is
	// normalized by the window's cell count, (2*HalfWidth)^2.
	HalfWidth int `yaml:"halfwidth"`
}

type GoalConfig struct {
	// Inset of the start goal from the field's low corner; the alternate goal
	// is its mirror through the field center.
	Inset         float64 `yaml:"inset"`
	ArrivalRadius float64 `yaml:"arrivalradius"`
}

// RewardConfig holds the reward magnitudes and the thresholds that trigger them.
type RewardConfig struct {
	Closer   float64 `yaml:"closer"`
	Living   float64 `yaml:"living"`
	Sand     float64 `yaml:"sand"`
	Boundary float64 `yaml:"boundary"`
	Stale    float64 `yaml:"stale"`
	// BoundaryMargin is the inset from each field edge the vehicle is clamped to.
	BoundaryMargin float64 `yaml:"boundarymargin"`
	// TimeBudget is the elapsed time since the last goal flip after which every
	// tick is rewarded as Stale.
	TimeBudget float64 `yaml:"timebudget"`
}

type LoopConfig struct {
	TickRate int `yaml:"tickrate"`
}

type AgentConfig struct {
	BrainPath  string `yaml:"brainpath"`
	ScoresPath string `yaml:"scorespath"`
}

// TrainingConfig holds standard RL params like learning rates, gamma, and epsilon,
// encoded as a key/val list so new agents can add params without touching this package.
type TrainingConfig struct {
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// TrainingDeadline is a fixed duration describing when to terminate training.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "training deadline %q", val)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// Default returns the parameters of the classic 800x600 sand map.
func Default() *Config {
	return &Config{
		Field: FieldConfig{
			Width:          800,
			Height:         600,
			BrushHalfWidth: 5,
		},
		Vehicle: VehicleConfig{
			NormalSpeed:   6,
			SlowedSpeed:   1,
			ProbeDistance: 30,
			ProbeAngle:    30,
			StartX:        400,
			StartY:        300,
		},
		Sensing: SensingConfig{
			HalfWidth: 10,
		},
		Goal: GoalConfig{
			Inset:         20,
			ArrivalRadius: 100,
		},
		Reward: RewardConfig{
			Closer:         0.1,
			Living:         -0.2,
			Sand:           -1,
			Boundary:       -1,
			Stale:          -0.2,
			BoundaryMargin: 10,
			TimeBudget:     10,
		},
		Loop: LoopConfig{
			TickRate: 60,
		},
		Agent: AgentConfig{
			BrainPath:  "last_brain.yaml",
			ScoresPath: "scores.yaml",
		},
		Training: TrainingConfig{
			HyperParams: []HyperParameter{
				{Key: "epsilon", Val: 0.1},
				{Key: "eta", Val: 0.1},
				{Key: "gamma", Val: 0.9},
			},
			TrainingDeadline: map[string]string{},
		},
	}
}

// Validate rejects geometry the components cannot run with.
func (cfg *Config) Validate() error {
	if cfg.Field.Width <= 0 || cfg.Field.Height <= 0 {
		return errors.Errorf("field must have positive extent, got %dx%d", cfg.Field.Width, cfg.Field.Height)
	}
	if cfg.Field.BrushHalfWidth < 0 || cfg.Sensing.HalfWidth <= 0 {
		return errors.New("brush and sensing half-widths must be non-negative and positive respectively")
	}
	if cfg.Vehicle.NormalSpeed <= 0 || cfg.Vehicle.SlowedSpeed <= 0 {
		return errors.New("vehicle speeds must be positive")
	}
	if cfg.Vehicle.StartX < 0 || cfg.Vehicle.StartX >= float64(cfg.Field.Width) ||
		cfg.Vehicle.StartY < 0 || cfg.Vehicle.StartY >= float64(cfg.Field.Height) {
		return errors.Errorf("vehicle start (%.1f,%.1f) lies outside the field", cfg.Vehicle.StartX, cfg.Vehicle.StartY)
	}
	if 2*cfg.Reward.BoundaryMargin >= float64(cfg.Field.Width) || 2*cfg.Reward.BoundaryMargin >= float64(cfg.Field.Height) {
		return errors.Errorf("boundary margin %.1f leaves no playable area", cfg.Reward.BoundaryMargin)
	}
	if cfg.Loop.TickRate <= 0 {
		return errors.Errorf("tick rate must be positive, got %d", cfg.Loop.TickRate)
	}
	if window := cfg.Training.GetHyperParamOrDefault("rewardWindow", 0); window < 0 {
		return errors.Errorf("reward window must be non-negative, got %.0f", window)
	}
	return nil
}

// FromYaml reads a 'kind'/'def' config file. Values missing from 'def' keep their defaults.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	if err := vp.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	outerConfig := &OuterConfig{}
	if err := vp.Unmarshal(outerConfig); err != nil {
		return nil, errors.Wrap(err, "unmarshal outer config")
	}
	if outerConfig.Kind != Kind {
		return nil, errors.Errorf("config kind %q, want %q", outerConfig.Kind, Kind)
	}

	def, err := yaml.Marshal(outerConfig.Def)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config def")
	}

	cfg := Default()
	if err = yaml.Unmarshal(def, cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config def")
	}

	if err = cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
