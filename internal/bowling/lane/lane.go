// Package lane simulates a bowling lane from above: a ball rolling with
// friction, a rack of ten pins that tip and scatter, gutters on both sides
// and a pit behind the deck. It provides the collaborators the scoring
// engine polls.
//
// Units are inches and seconds. X runs across the lane (negative is left),
// Y runs from the foul line to the pit, Z is height above the lane surface.
package lane

import (
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
)

const (
	gravity      = 386.0 // in/s^2
	substeps     = 4
	ballBounce   = 0.7 // Restitution for ball-pin contact
	pinBounce    = 0.6 // Restitution for pin-pin contact
	contactNoise = 0.05
)

// Lane owns the ball, the rack and the bowler.
type Lane struct {
	cfg config.BowlingConfig
	rng *rand.Rand

	Ball   *Ball
	Pins   *Rack
	Bowler *Bowler

	onGutter func(left bool)
	onThrow  func(start core.Vec3)
}

// New creates a lane with a fresh rack and no ball.
func New(cfg config.BowlingConfig, seed int64) *Lane {
	l := &Lane{cfg: cfg}
	l.Ball = &Ball{lane: l}
	l.Pins = &Rack{lane: l}
	l.Bowler = &Bowler{lane: l}
	l.Reset(seed)
	return l
}

// Reset reseeds the lane, respawns the rack and removes the ball.
func (l *Lane) Reset(seed int64) {
	l.rng = rand.New(rand.NewSource(seed))
	l.Ball.Destroy()
	l.Pins.RespawnAll()
	l.Bowler.reset()
}

// OnGutter registers the callback fired once per ball when it drops into a gutter.
func (l *Lane) OnGutter(fn func(left bool)) {
	l.onGutter = fn
}

// OnThrow registers the callback fired when the bowler releases the ball.
func (l *Lane) OnThrow(fn func(start core.Vec3)) {
	l.onThrow = fn
}

// Config returns the lane configuration.
func (l *Lane) Config() config.LaneConfig {
	return l.cfg.Lane
}

// DeckEnd is the Y coordinate where the pin deck drops into the pit.
func (l *Lane) DeckEnd() float64 {
	return l.cfg.Lane.Length + l.cfg.Lane.PitDepth
}

// Step advances the simulation by dt.
func (l *Lane) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	sub := dt / substeps
	for i := 0; i < substeps; i++ {
		l.Bowler.step(sub)
		l.Ball.step(sub)
		l.Pins.step(sub)
		l.collide()
	}
}

// collide resolves ball-pin and pin-pin contacts.
func (l *Lane) collide() {
	lc := l.cfg.Lane
	b := l.Ball

	if b.onDeck() {
		reach := lc.BallRadius + lc.PinRadius
		for _, p := range l.Pins.pins {
			if p.Removed {
				continue
			}
			dv := l.contact(&b.Pos, &b.Vel, lc.BallMass, &p.Pos, &p.Vel, lc.PinMass, reach, ballBounce, true)
			p.kick(dv)
		}
	}

	reach := 2 * lc.PinRadius
	pins := l.Pins.pins
	for i := 0; i < len(pins); i++ {
		a := pins[i]
		if a.Removed {
			continue
		}
		for j := i + 1; j < len(pins); j++ {
			c := pins[j]
			if c.Removed {
				continue
			}
			if a.Vel.LenXY() == 0 && c.Vel.LenXY() == 0 {
				continue
			}
			before := a.Vel
			dv := l.contact(&a.Pos, &a.Vel, lc.PinMass, &c.Pos, &c.Vel, lc.PinMass, reach, pinBounce, false)
			if dv > 0 {
				a.kick(a.Vel.Sub(before).LenXY())
				c.kick(dv)
			}
		}
	}
}

// contact applies an impulse along the line of centers when two discs
// overlap and approach. It returns the speed change of the second body.
func (l *Lane) contact(pa, va *core.Vec3, ma float64, pb, vb *core.Vec3, mb, reach, bounce float64, noisy bool) float64 {
	d := core.Vec3{X: pb.X - pa.X, Y: pb.Y - pa.Y}
	dist := d.LenXY()
	if dist >= reach || dist == 0 {
		return 0
	}
	n := d.Scale(1 / dist)
	if noisy {
		n = rotate(n, l.rng.NormFloat64()*contactNoise)
	}

	rel := (va.X-vb.X)*n.X + (va.Y-vb.Y)*n.Y
	if rel <= 0 {
		return 0
	}

	j := (1 + bounce) * rel / (1/ma + 1/mb)
	*va = va.Sub(n.Scale(j / ma))
	*vb = vb.Add(n.Scale(j / mb))

	// Push apart so the pair does not collide again next substep
	overlap := reach - dist
	wa := mb / (ma + mb)
	*pa = pa.Sub(n.Scale(overlap * wa))
	*pb = pb.Add(n.Scale(overlap * (1 - wa)))

	return j / mb
}

func rotate(v core.Vec3, rad float64) core.Vec3 {
	s, c := math.Sincos(rad)
	return core.Vec3{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c, Z: v.Z}
}

// decelerate reduces the surface speed of v by amount, stopping at zero.
func decelerate(v core.Vec3, amount float64) core.Vec3 {
	speed := v.LenXY()
	if speed <= amount {
		return core.Vec3{Z: v.Z}
	}
	k := (speed - amount) / speed
	return core.Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z}
}
