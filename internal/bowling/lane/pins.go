package lane

import (
	"math"
	"time"

	"github.com/vovakirdan/tui-bowling/internal/core"
)

const (
	tiltGain      = 1.5   // deg/s of tilt rate per in/s of impact
	restoreAccel  = 300.0 // deg/s^2 pulling a wobbling pin upright
	fallAccel     = 600.0 // deg/s^2 for a pin past the tipping point
	rockDamping   = 0.3
	minRockRate   = 1.0
	fallenTilt    = 90.0
	degreesPerRad = 180 / math.Pi
)

// Pin is one pin of the rack.
type Pin struct {
	Number   int
	Home     core.Vec3
	Pos      core.Vec3
	Vel      core.Vec3
	Tilt     float64 // Degrees from vertical
	TiltRate float64 // Degrees per second
	Knocked  bool
	Removed  bool
}

// Standing reports whether the pin is on the deck and upright.
func (p *Pin) Standing() bool {
	return !p.Removed && !p.Knocked
}

// kick converts an impact speed into tilt.
func (p *Pin) kick(dv float64) {
	if dv <= 0 || p.Removed {
		return
	}
	p.TiltRate += dv * tiltGain
}

func (p *Pin) rearm() {
	p.Pos = p.Home
	p.Vel = core.Vec3{}
	p.Tilt = 0
	p.TiltRate = 0
	p.Knocked = false
	p.Removed = false
}

// Rack is the set of ten pins. It implements bowling.PinSet.
type Rack struct {
	lane      *Lane
	pins      []*Pin
	destroyed bool
}

// RackPositions returns the canonical triangle, head pin first, numbered
// left to right in each row from the bowler's view.
func RackPositions(length, spacing float64, count int) []core.Vec3 {
	rowDepth := spacing * math.Sqrt(3) / 2
	out := make([]core.Vec3, 0, count)
	for row := 0; len(out) < count; row++ {
		for i := 0; i <= row && len(out) < count; i++ {
			out = append(out, core.Vec3{
				X: (float64(i) - float64(row)/2) * spacing,
				Y: length + float64(row)*rowDepth,
			})
		}
	}
	return out
}

// Pins returns the pins, including removed ones.
func (r *Rack) Pins() []*Pin {
	return r.pins
}

// StandingCount implements bowling.PinSet.
func (r *Rack) StandingCount() int {
	n := 0
	for _, p := range r.pins {
		if p.Standing() {
			n++
		}
	}
	return n
}

// AllStationary implements bowling.PinSet.
func (r *Rack) AllStationary() bool {
	sc := r.lane.cfg.Settle
	for _, p := range r.pins {
		if p.Removed {
			continue
		}
		if p.Vel.LenXY() >= sc.VelocityThreshold {
			return false
		}
		if math.Abs(p.TiltRate)/degreesPerRad >= sc.AngularThreshold {
			return false
		}
	}
	return true
}

// ClearKnockedDown implements bowling.PinSet.
func (r *Rack) ClearKnockedDown() {
	for _, p := range r.pins {
		if p.Knocked && !p.Removed {
			p.Removed = true
			r.destroyed = true
		}
	}
}

// FullReset implements bowling.PinSet.
func (r *Rack) FullReset() {
	for _, p := range r.pins {
		if !p.Removed {
			p.rearm()
		}
	}
}

// RespawnAll implements bowling.PinSet.
func (r *Rack) RespawnAll() {
	lc := r.lane.cfg.Lane
	homes := RackPositions(lc.Length, lc.PinSpacing, r.lane.cfg.Game.PinsPerRack)
	r.pins = make([]*Pin, len(homes))
	for i, h := range homes {
		r.pins[i] = &Pin{Number: i + 1, Home: h}
		r.pins[i].rearm()
	}
	r.destroyed = false
}

// AnyDestroyed implements bowling.PinSet.
func (r *Rack) AnyDestroyed() bool {
	return r.destroyed
}

func (r *Rack) step(dt time.Duration) {
	lc := r.lane.cfg.Lane
	sec := dt.Seconds()
	half := lc.Width / 2
	deckEnd := r.lane.DeckEnd()

	for _, p := range r.pins {
		if p.Removed {
			continue
		}

		p.Vel = decelerate(p.Vel, lc.PinFriction*sec)
		p.Pos = p.Pos.Add(p.Vel.Scale(sec))

		// Off the deck means down
		if math.Abs(p.Pos.X) > half || p.Pos.Y > deckEnd {
			p.Knocked = true
			p.Vel = core.Vec3{}
		}

		if p.Knocked {
			if p.Tilt < fallenTilt {
				p.TiltRate = math.Max(p.TiltRate, 0) + fallAccel*sec
				p.Tilt += p.TiltRate * sec
			}
			if p.Tilt >= fallenTilt {
				p.Tilt = fallenTilt
				p.TiltRate = 0
			}
			continue
		}

		p.Tilt += p.TiltRate * sec
		p.TiltRate -= restoreAccel * sec
		if p.Tilt >= lc.KnockOverAngle {
			p.Knocked = true
			continue
		}
		if p.Tilt <= 0 {
			p.Tilt = 0
			if p.TiltRate < 0 {
				p.TiltRate = -p.TiltRate * rockDamping
				if p.TiltRate < minRockRate {
					p.TiltRate = 0
				}
			}
		}
	}
}
