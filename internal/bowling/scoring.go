package bowling

import "github.com/vovakirdan/tui-bowling/internal/config"

// ScoreModel turns recorded frames into per-frame points.
type ScoreModel interface {
	// Name identifies the model in config and storage.
	Name() string
	// FrameScores returns the points credited to each frame.
	FrameScores(frames []FrameRecord, pinsPerRack int) []int
}

// ModelFor returns the score model registered under name.
// Unknown names fall back to the additive model.
func ModelFor(name string) ScoreModel {
	if name == config.ScoringOfficial {
		return OfficialModel{}
	}
	return AdditiveModel{}
}

// Total sums the frame scores of a model.
func Total(m ScoreModel, frames []FrameRecord, pinsPerRack int) int {
	total := 0
	for _, s := range m.FrameScores(frames, pinsPerRack) {
		total += s
	}
	return total
}

// AdditiveModel credits each frame with the pins knocked in it.
// Strikes and spares earn no bonus.
type AdditiveModel struct{}

// Name implements ScoreModel.
func (AdditiveModel) Name() string { return config.ScoringAdditive }

// FrameScores implements ScoreModel.
func (AdditiveModel) FrameScores(frames []FrameRecord, _ int) []int {
	scores := make([]int, len(frames))
	for i, f := range frames {
		scores[i] = f.Pins
	}
	return scores
}

// OfficialModel is ten-pin scoring with strike and spare bonuses taken from
// the following rolls. The last frame counts its own rolls only.
// Bonuses for rolls not yet thrown are simply missing.
type OfficialModel struct{}

// Name implements ScoreModel.
func (OfficialModel) Name() string { return config.ScoringOfficial }

// FrameScores implements ScoreModel.
func (OfficialModel) FrameScores(frames []FrameRecord, pinsPerRack int) []int {
	// Flatten rolls, remembering where each frame starts
	var rolls []int
	starts := make([]int, len(frames))
	for i, f := range frames {
		starts[i] = len(rolls)
		rolls = append(rolls, f.Rolls...)
	}

	bonus := func(from, n int) int {
		sum := 0
		for i := from; i < len(rolls) && i < from+n; i++ {
			sum += rolls[i]
		}
		return sum
	}

	scores := make([]int, len(frames))
	last := len(frames) - 1
	for i, f := range frames {
		if i == last || len(f.Rolls) == 0 {
			scores[i] = f.Pins
			continue
		}
		start := starts[i]
		switch {
		case f.Rolls[0] == pinsPerRack:
			scores[i] = pinsPerRack + bonus(start+1, 2)
		case f.Pins == pinsPerRack:
			scores[i] = pinsPerRack + bonus(start+len(f.Rolls), 1)
		default:
			scores[i] = f.Pins
		}
	}
	return scores
}
