package config

import "math"

// DifficultyManager calculates release error for the bowler based on game progress.
type DifficultyManager struct {
	cfg          DifficultyConfig
	initialLevel float64
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{
		cfg:          cfg,
		initialLevel: clampF(cfg.InitialLevel, 0.0, 1.0),
	}
}

// IsEnabled returns whether difficulty progression is active.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.Progression.Type != "none"
}

// Level returns the current difficulty level (0.0 to 1.0) for a 1-based frame.
func (d *DifficultyManager) Level(frame int) float64 {
	if !d.IsEnabled() || d.cfg.Progression.Type != "frame" {
		return d.initialLevel
	}

	maxAt := float64(d.cfg.Progression.MaxAt)
	if maxAt <= 1 {
		return 1.0
	}

	progress := clampF(float64(frame-1)/(maxAt-1), 0.0, 1.0)

	// Interpolate from initial level to 1.0
	return d.initialLevel + progress*(1.0-d.initialLevel)
}

// AimWobble returns the maximum release angle error in degrees for a frame.
func (d *DifficultyManager) AimWobble(frame int) float64 {
	return d.Level(frame) * d.cfg.Scaling.AimWobble
}

// SpeedJitter returns the maximum fractional throw speed error for a frame.
func (d *DifficultyManager) SpeedJitter(frame int) float64 {
	return d.Level(frame) * d.cfg.Scaling.SpeedJitter
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
