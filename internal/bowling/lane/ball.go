package lane

import (
	"math"
	"time"

	"github.com/vovakirdan/tui-bowling/internal/core"
)

// Ball is the long-lived ball handle. It is live from the moment the bowler
// picks it up until the engine destroys it.
type Ball struct {
	lane *Lane

	Pos core.Vec3
	Vel core.Vec3

	start    core.Vec3
	elapsed  time.Duration
	live     bool
	held     bool
	inGutter bool
	inPit    bool
}

// Valid implements bowling.BallMotion.
func (b *Ball) Valid() bool { return b.live }

// OutOfBounds implements bowling.BallMotion.
func (b *Ball) OutOfBounds() bool {
	return b.live && b.Pos.Z < b.lane.cfg.Roll.FloorHeight
}

// DistanceFromStart implements bowling.BallMotion.
func (b *Ball) DistanceFromStart() float64 { return core.Dist(b.Pos, b.start) }

// ElapsedSinceThrow implements bowling.BallMotion.
func (b *Ball) ElapsedSinceThrow() time.Duration { return b.elapsed }

// Speed implements bowling.BallMotion.
func (b *Ball) Speed() float64 { return b.Vel.Len() }

// Destroy implements bowling.BallMotion.
func (b *Ball) Destroy() {
	b.live = false
	b.held = false
	b.Vel = core.Vec3{}
}

// Held reports whether the bowler is holding the ball.
func (b *Ball) Held() bool { return b.live && b.held }

// Rolling reports whether the ball is on its way down the lane.
func (b *Ball) Rolling() bool { return b.live && !b.held }

// InGutter reports whether the ball dropped into a gutter.
func (b *Ball) InGutter() bool { return b.inGutter }

// pickUp places a fresh ball in the bowler's hands at the foul line.
func (b *Ball) pickUp(x float64) {
	b.Pos = core.Vec3{X: x}
	b.Vel = core.Vec3{}
	b.start = b.Pos
	b.elapsed = 0
	b.live = true
	b.held = true
	b.inGutter = false
	b.inPit = false
}

// release sends the ball down the lane.
func (b *Ball) release(vel core.Vec3) {
	b.held = false
	b.start = b.Pos
	b.elapsed = 0
	b.Vel = vel
}

// onDeck reports whether the ball can touch pins.
func (b *Ball) onDeck() bool {
	return b.Rolling() && !b.inGutter && !b.inPit
}

func (b *Ball) step(dt time.Duration) {
	if !b.Rolling() {
		return
	}
	lc := b.lane.cfg.Lane
	sec := dt.Seconds()
	b.elapsed += dt

	if b.inPit {
		b.Vel.Z -= gravity * sec
		b.Pos = b.Pos.Add(b.Vel.Scale(sec))
		return
	}

	b.Vel = decelerate(b.Vel, lc.RollingResistance*sec)
	b.Pos = b.Pos.Add(b.Vel.Scale(sec))

	half := lc.Width / 2
	if !b.inGutter && math.Abs(b.Pos.X) > half {
		left := b.Pos.X < 0
		b.inGutter = true
		b.Pos.X = math.Copysign(half+lc.GutterWidth/2, b.Pos.X)
		b.Vel.X = 0
		if b.lane.onGutter != nil {
			b.lane.onGutter(left)
		}
	}

	if b.Pos.Y > b.lane.DeckEnd() {
		b.inPit = true
	}
}
