// Package config provides YAML-based configuration loading and difficulty
// management for the bowling game.
package config

import "time"

// BowlingConfig contains all tunable parameters for a bowling game.
type BowlingConfig struct {
	Game       GameRules        `yaml:"game"`
	Roll       RollLimits       `yaml:"roll"`
	Settle     SettleConfig     `yaml:"settle"`
	Timing     TimingConfig     `yaml:"timing"`
	Lane       LaneConfig       `yaml:"lane"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// GameRules defines the shape of a game.
type GameRules struct {
	TotalFrames int `yaml:"total_frames"`
	PinsPerRack int `yaml:"pins_per_rack"`
}

// RollLimits decides when a ball in play is finished.
// Distances are in lane units (inches), speeds in units per second.
type RollLimits struct {
	FloorHeight      float64       `yaml:"floor_height"`
	MaxDistance      float64       `yaml:"max_distance"`
	PastPinsDistance float64       `yaml:"past_pins_distance"`
	MinTravelTime    time.Duration `yaml:"min_travel_time"`
	StopSpeed        float64       `yaml:"stop_speed"`
}

// SettleConfig controls how long pins may wobble before a roll is counted.
type SettleConfig struct {
	MinDelay          time.Duration `yaml:"min_delay"`
	StrikeDuration    time.Duration `yaml:"strike_duration"`
	PartialDuration   time.Duration `yaml:"partial_duration"`
	VelocityThreshold float64       `yaml:"velocity_threshold"`
	AngularThreshold  float64       `yaml:"angular_threshold"`
}

// TimingConfig holds presentation delays between rolls.
type TimingConfig struct {
	PinResetDelay time.Duration `yaml:"pin_reset_delay"`
	EndGameDelay  time.Duration `yaml:"end_game_delay"`
}

// LaneConfig defines the physical lane simulation.
type LaneConfig struct {
	Length            float64       `yaml:"length"`             // Foul line to head pin
	Width             float64       `yaml:"width"`              // Playable surface width
	GutterWidth       float64       `yaml:"gutter_width"`       // Width of each gutter channel
	PitDepth          float64       `yaml:"pit_depth"`          // Distance from head pin to the pit edge
	PinSpacing        float64       `yaml:"pin_spacing"`        // Center-to-center pin distance
	PinRadius         float64       `yaml:"pin_radius"`         // Pin collision radius
	BallRadius        float64       `yaml:"ball_radius"`        // Ball collision radius
	BallMass          float64       `yaml:"ball_mass"`          // kg
	PinMass           float64       `yaml:"pin_mass"`           // kg
	RollingResistance float64       `yaml:"rolling_resistance"` // Ball deceleration, units/s^2
	PinFriction       float64       `yaml:"pin_friction"`       // Pin deceleration, units/s^2
	KnockOverAngle    float64       `yaml:"knock_over_angle"`   // Degrees from vertical
	MinThrowSpeed     float64       `yaml:"min_throw_speed"`
	MaxThrowSpeed     float64       `yaml:"max_throw_speed"`
	ChargeTime        time.Duration `yaml:"charge_time"`   // Time to reach full charge
	MaxAimAngle       float64       `yaml:"max_aim_angle"` // Degrees either side of straight
	AimStep           float64       `yaml:"aim_step"`      // Degrees per aim input
}

// ScoringConfig selects the scoring model and optional achievements.
type ScoringConfig struct {
	Model           string `yaml:"model"` // "additive" or "official"
	DetectCleanGame bool   `yaml:"detect_clean_game"`
	DetectDutchman  bool   `yaml:"detect_dutchman"`
}

// Scoring model names.
const (
	ScoringAdditive = "additive"
	ScoringOfficial = "official"
)

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases over a game.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "frame" or "none"
	MaxAt int    `yaml:"max_at"` // Frame at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	AimWobble   float64 `yaml:"aim_wobble"`   // Degrees of random release error at max difficulty
	SpeedJitter float64 `yaml:"speed_jitter"` // Fraction of throw speed lost or gained at max difficulty
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}
