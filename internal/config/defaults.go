package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/bowling.yaml
var defaultBowlingYAML []byte

// DefaultBowlingConfig returns the hardcoded default configuration.
// The embedded bowling.yaml mirrors these values.
func DefaultBowlingConfig() BowlingConfig {
	return BowlingConfig{
		Game: GameRules{
			TotalFrames: 10,
			PinsPerRack: 10,
		},
		Roll: RollLimits{
			FloorHeight:      -20,
			MaxDistance:      800,
			PastPinsDistance: 740,
			MinTravelTime:    1500 * time.Millisecond,
			StopSpeed:        10,
		},
		Settle: SettleConfig{
			MinDelay:          500 * time.Millisecond,
			StrikeDuration:    1500 * time.Millisecond,
			PartialDuration:   3 * time.Second,
			VelocityThreshold: 5,
			AngularThreshold:  0.2,
		},
		Timing: TimingConfig{
			PinResetDelay: 750 * time.Millisecond,
			EndGameDelay:  2 * time.Second,
		},
		Lane: LaneConfig{
			Length:            720,
			Width:             42,
			GutterWidth:       9,
			PitDepth:          36,
			PinSpacing:        12,
			PinRadius:         2.4,
			BallRadius:        4.3,
			BallMass:          7.0,
			PinMass:           1.6,
			RollingResistance: 15,
			PinFriction:       400,
			KnockOverAngle:    45,
			MinThrowSpeed:     220,
			MaxThrowSpeed:     480,
			ChargeTime:        1500 * time.Millisecond,
			MaxAimAngle:       4,
			AimStep:           0.25,
		},
		Scoring: ScoringConfig{
			Model:           ScoringAdditive,
			DetectCleanGame: false,
			DetectDutchman:  false,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "frame",
				MaxAt: 10,
			},
			Scaling: ScalingConfig{
				AimWobble:   0.6,
				SpeedJitter: 0.1,
			},
		},
	}
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultBowlingYAML
}
