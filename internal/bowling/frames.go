package bowling

import "strconv"

// Mark is the outcome of a frame.
type Mark string

const (
	MarkNone   Mark = ""
	MarkStrike Mark = "strike"
	MarkSpare  Mark = "spare"
	MarkOpen   Mark = "open"
)

// FrameRecord accumulates the rolls of one frame.
type FrameRecord struct {
	Pins  int   // Sum of pins knocked in this frame
	Rolls []int // Pins knocked per roll
	Mark  Mark
}

// clone returns a deep copy.
func (f FrameRecord) clone() FrameRecord {
	c := f
	c.Rolls = append([]int(nil), f.Rolls...)
	return c
}

// FirstRoll returns the pins knocked by the first roll, or -1 if none.
func (f FrameRecord) FirstRoll() int {
	if len(f.Rolls) == 0 {
		return -1
	}
	return f.Rolls[0]
}

// RollSymbols renders each roll the way a scorecard does.
func (f FrameRecord) RollSymbols(pinsPerRack int) []string {
	symbols := make([]string, 0, len(f.Rolls))
	rack := pinsPerRack
	fresh := true
	for _, n := range f.Rolls {
		switch {
		case n == rack && fresh:
			symbols = append(symbols, "X")
		case n == rack:
			symbols = append(symbols, "/")
		case n == 0:
			symbols = append(symbols, "-")
		default:
			symbols = append(symbols, strconv.Itoa(n))
		}
		rack -= n
		fresh = false
		if rack == 0 {
			rack = pinsPerRack
			fresh = true
		}
	}
	return symbols
}
