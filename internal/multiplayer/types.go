// Package multiplayer hosts bowling lanes on a server: one authoritative
// simulation per lane, driven by its bowler and watched by any number of
// read-only spectators.
package multiplayer

import (
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
)

// SessionID uniquely identifies a connected session (SSH connection, websocket).
type SessionID string

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Role describes how a session takes part in a lane.
type Role int

const (
	// RoleBowler drives the lane. Each lane has exactly one.
	RoleBowler Role = iota

	// RoleSpectator only receives snapshots.
	RoleSpectator
)

// String returns a human-readable name for the role.
func (r Role) String() string {
	switch r {
	case RoleBowler:
		return "Bowler"
	case RoleSpectator:
		return "Spectator"
	default:
		return "Unknown"
	}
}

// ResultData contains a finished game for persistence.
type ResultData struct {
	GameID   uuid.UUID
	LaneCode string
	Player   string
	Result   bowling.Result
	Duration time.Duration
}

// ResultSaver is an interface for saving finished games.
// This allows the hub to save results without depending on the storage package.
type ResultSaver interface {
	SaveLaneResult(data ResultData) error
}

// LaneInfo is a summary of a hosted lane for listings.
type LaneInfo struct {
	Code       string        `json:"code"`
	Player     string        `json:"player"`
	GameID     uuid.UUID     `json:"game_id"`
	State      bowling.State `json:"state"`
	Frame      int           `json:"frame"`
	Score      int           `json:"score"`
	Spectators int           `json:"spectators"`
	OpenedAt   time.Time     `json:"opened_at"`
}
