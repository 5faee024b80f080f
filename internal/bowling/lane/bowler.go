package lane

import (
	"errors"
	"math"
	"time"

	"github.com/vovakirdan/tui-bowling/internal/core"
)

// ErrBallRolling is returned when a new ball is requested while one is
// still on its way down the lane.
var ErrBallRolling = errors.New("lane: ball still rolling")

// Bowler holds the ball, aims, charges and throws.
// It implements bowling.PlayerAgent.
type Bowler struct {
	lane *Lane

	aim      float64 // Degrees, negative is left
	charge   float64 // 0..1
	charging bool
	wobble   float64 // Max release angle error in degrees
	jitter   float64 // Max fractional speed error
}

func (b *Bowler) reset() {
	b.aim = 0
	b.charge = 0
	b.charging = false
}

// IssueNewBall implements bowling.PlayerAgent.
func (b *Bowler) IssueNewBall() error {
	if b.lane.Ball.Rolling() {
		return ErrBallRolling
	}
	b.lane.Ball.pickUp(0)
	b.charge = 0
	b.charging = false
	return nil
}

// SetRelease sets the random release error applied to the next throws.
func (b *Bowler) SetRelease(wobble, jitter float64) {
	b.wobble = math.Max(wobble, 0)
	b.jitter = math.Max(jitter, 0)
}

// Aim turns the aim by delta degrees, clamped to the configured range.
func (b *Bowler) Aim(delta float64) {
	limit := b.lane.cfg.Lane.MaxAimAngle
	b.aim = core.ClampF(b.aim+delta, -limit, limit)
}

// AimAngle returns the aim in degrees.
func (b *Bowler) AimAngle() float64 { return b.aim }

// Charge returns the charge level in [0, 1].
func (b *Bowler) Charge() float64 { return b.charge }

// Charging reports whether the bowler is winding up.
func (b *Bowler) Charging() bool { return b.charging }

// BeginCharge starts the wind-up. It needs a held ball.
func (b *Bowler) BeginCharge() bool {
	if !b.lane.Ball.Held() || b.charging {
		return false
	}
	b.charging = true
	b.charge = 0
	return true
}

// Release throws the held ball with the current aim and charge.
// It reports whether a ball was thrown.
func (b *Bowler) Release() bool {
	ball := b.lane.Ball
	if !ball.Held() {
		return false
	}
	lc := b.lane.cfg.Lane
	rng := b.lane.rng

	angle := b.aim
	if b.wobble > 0 {
		angle += (rng.Float64()*2 - 1) * b.wobble
	}
	speed := lc.MinThrowSpeed + b.charge*(lc.MaxThrowSpeed-lc.MinThrowSpeed)
	if b.jitter > 0 {
		speed *= 1 + (rng.Float64()*2-1)*b.jitter
	}

	s, c := math.Sincos(angle * math.Pi / 180)
	ball.release(core.Vec3{X: speed * s, Y: speed * c})
	b.charging = false
	b.charge = 0

	if b.lane.onThrow != nil {
		b.lane.onThrow(ball.start)
	}
	return true
}

func (b *Bowler) step(dt time.Duration) {
	if !b.charging {
		return
	}
	full := b.lane.cfg.Lane.ChargeTime
	if full <= 0 {
		b.charge = 1
		return
	}
	b.charge = math.Min(1, b.charge+float64(dt)/float64(full))
}
