package bowling

import (
	"errors"
	"time"
)

// ErrNoPlayerAgent is returned when a new ball must be issued but no player
// agent is registered. The issue stays pending and is retried by SetPlayerAgent.
var ErrNoPlayerAgent = errors.New("bowling: no player agent available to receive a ball")

// BallMotion reports the motion of the ball currently in play.
// It is a long-lived handle: Destroy removes the live ball and a later
// IssueNewBall on the PlayerAgent makes it valid again.
type BallMotion interface {
	// Valid reports whether a live ball exists.
	Valid() bool
	// OutOfBounds reports whether the ball fell below the floor.
	OutOfBounds() bool
	// DistanceFromStart is the straight-line distance from the release point.
	DistanceFromStart() float64
	// ElapsedSinceThrow is the simulated time since release.
	ElapsedSinceThrow() time.Duration
	// Speed is the current ball speed.
	Speed() float64
	// Destroy removes the ball from play.
	Destroy()
}

// PinSet is the rack of pins on the lane.
type PinSet interface {
	// StandingCount counts pins that exist and are not knocked over.
	StandingCount() int
	// AllStationary reports whether every pin's linear and angular speed is
	// below the settle thresholds.
	AllStationary() bool
	// ClearKnockedDown removes every knocked pin, leaving standing pins in place.
	ClearKnockedDown()
	// FullReset re-arms existing pins at their rack positions.
	FullReset()
	// RespawnAll recreates the whole rack from scratch.
	RespawnAll()
	// AnyDestroyed reports whether a pin was removed since the last respawn.
	AnyDestroyed() bool
}

// PlayerAgent receives new balls.
type PlayerAgent interface {
	IssueNewBall() error
}
