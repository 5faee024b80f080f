package lane

// BallSnapshot is the visible state of the ball.
type BallSnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Live     bool    `json:"live"`
	Held     bool    `json:"held"`
	InGutter bool    `json:"in_gutter,omitempty"`
}

// PinSnapshot is the visible state of one pin.
type PinSnapshot struct {
	Number  int     `json:"number"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Tilt    float64 `json:"tilt"`
	Knocked bool    `json:"knocked,omitempty"`
	Removed bool    `json:"removed,omitempty"`
}

// Snapshot captures the lane for rendering, spectating and determinism checks.
type Snapshot struct {
	Ball     BallSnapshot  `json:"ball"`
	Pins     []PinSnapshot `json:"pins"`
	Aim      float64       `json:"aim"`
	Charge   float64       `json:"charge"`
	Charging bool          `json:"charging,omitempty"`
}

// Snapshot returns the current lane state.
func (l *Lane) Snapshot() Snapshot {
	b := l.Ball
	s := Snapshot{
		Ball: BallSnapshot{
			X:        b.Pos.X,
			Y:        b.Pos.Y,
			Z:        b.Pos.Z,
			Live:     b.live,
			Held:     b.Held(),
			InGutter: b.inGutter,
		},
		Pins:     make([]PinSnapshot, len(l.Pins.pins)),
		Aim:      l.Bowler.aim,
		Charge:   l.Bowler.charge,
		Charging: l.Bowler.charging,
	}
	for i, p := range l.Pins.pins {
		s.Pins[i] = PinSnapshot{
			Number:  p.Number,
			X:       p.Pos.X,
			Y:       p.Pos.Y,
			Tilt:    p.Tilt,
			Knocked: p.Knocked,
			Removed: p.Removed,
		}
	}
	return s
}
