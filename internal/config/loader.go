package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// LoadBowling loads the bowling configuration.
// Search order: customPath -> ~/.bowling/configs/bowling.yaml -> ./configs/bowling.yaml -> embedded default
//
// Files are decoded on top of the defaults, so a partial file only overrides
// the keys it names.
func LoadBowling(customPath string) (BowlingConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return BowlingConfig{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := parse(data)
		if err != nil {
			return BowlingConfig{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("bowling.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "bowling.yaml")); err == nil {
		if cfg, err := parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := parse(defaultBowlingYAML)
	if err != nil {
		return DefaultBowlingConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// parse decodes YAML over the hardcoded defaults and validates the result.
func parse(data []byte) (BowlingConfig, error) {
	cfg := DefaultBowlingConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BowlingConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return BowlingConfig{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bowling", "configs", filename)
}

// Validate checks the configuration for values the engine cannot run with.
func (c BowlingConfig) Validate() error {
	switch {
	case c.Game.TotalFrames < 1:
		return fmt.Errorf("%w: game.total_frames must be at least 1, got %d", ErrInvalidConfig, c.Game.TotalFrames)
	case c.Game.PinsPerRack < 1:
		return fmt.Errorf("%w: game.pins_per_rack must be at least 1, got %d", ErrInvalidConfig, c.Game.PinsPerRack)
	case c.Settle.MinDelay < 0:
		return fmt.Errorf("%w: settle.min_delay must not be negative", ErrInvalidConfig)
	case c.Settle.StrikeDuration > c.Settle.PartialDuration:
		return fmt.Errorf("%w: settle.strike_duration (%s) exceeds settle.partial_duration (%s)",
			ErrInvalidConfig, c.Settle.StrikeDuration, c.Settle.PartialDuration)
	case c.Roll.PastPinsDistance > c.Roll.MaxDistance:
		return fmt.Errorf("%w: roll.past_pins_distance exceeds roll.max_distance", ErrInvalidConfig)
	case c.Lane.MinThrowSpeed <= 0 || c.Lane.MaxThrowSpeed < c.Lane.MinThrowSpeed:
		return fmt.Errorf("%w: lane throw speeds must satisfy 0 < min <= max", ErrInvalidConfig)
	case c.Scoring.Model != ScoringAdditive && c.Scoring.Model != ScoringOfficial:
		return fmt.Errorf("%w: unknown scoring.model %q", ErrInvalidConfig, c.Scoring.Model)
	}
	return nil
}

// ApplyPreset modifies the config based on a difficulty preset.
// An empty preset leaves the config untouched.
func ApplyPreset(cfg *BowlingConfig, preset DifficultyPreset) {
	if preset == "" {
		return
	}
	if preset == DifficultyFixed {
		cfg.Difficulty.Enabled = false
	} else {
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}

	switch preset {
	case DifficultyEasy:
		cfg.Lane.MaxAimAngle = 3
		cfg.Difficulty.Scaling.AimWobble = 0.3
	case DifficultyHard:
		cfg.Lane.MaxAimAngle = 5
		cfg.Difficulty.Scaling.AimWobble = 1.0
	}
}
