package bowling

// State is the roll lifecycle state of a game.
type State string

const (
	StateWaitingForThrow State = "waiting_for_throw"
	StateBallInPlay      State = "ball_in_play"
	StateSettling        State = "settling"
	StateResettingPins   State = "resetting_pins"
	StateGameOver        State = "game_over"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Label returns a short human-readable description for HUDs.
func (s State) Label() string {
	switch s {
	case StateWaitingForThrow:
		return "Ready"
	case StateBallInPlay:
		return "Rolling"
	case StateSettling:
		return "Settling"
	case StateResettingPins:
		return "Resetting"
	case StateGameOver:
		return "Game Over"
	default:
		return "Unknown"
	}
}

// pinAction is the rack work scheduled for the end of ResettingPins.
type pinAction int

const (
	pinsKeep pinAction = iota
	pinsClearKnocked
	pinsFullReset
)
