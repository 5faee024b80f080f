package multiplayer

import (
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
)

// SessionEvent represents an event sent from a lane to a session.
type SessionEvent interface {
	sessionEvent()
}

// LaneOpenedEvent is sent to the bowler when the lane is ready.
type LaneOpenedEvent struct {
	Code   string
	GameID uuid.UUID
}

func (LaneOpenedEvent) sessionEvent() {}

// LaneErrorEvent is sent when a lane operation fails.
type LaneErrorEvent struct {
	Message string
}

func (LaneErrorEvent) sessionEvent() {}

// SnapshotEvent carries the lane view to every session.
type SnapshotEvent struct {
	Code string
	View bowlgame.View
}

func (SnapshotEvent) sessionEvent() {}

// GameFinishedEvent is sent when a game on the lane reaches game over.
type GameFinishedEvent struct {
	Code   string
	GameID uuid.UUID
	Result bowling.Result
}

func (GameFinishedEvent) sessionEvent() {}

// LaneClosedEvent is sent when the lane shuts down.
type LaneClosedEvent struct {
	Code   string
	Reason CloseReason
}

func (LaneClosedEvent) sessionEvent() {}

// CloseReason describes why a lane closed.
type CloseReason int

const (
	CloseReasonBowlerLeft CloseReason = iota // Bowler disconnected
	CloseReasonExpired                       // No input for too long
	CloseReasonShutdown                      // Server stopped
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonBowlerLeft:
		return "Bowler left"
	case CloseReasonExpired:
		return "Lane expired"
	case CloseReasonShutdown:
		return "Server shutting down"
	default:
		return "Unknown"
	}
}
