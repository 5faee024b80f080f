package bowling

// FrameSnapshot is the read-only view of one frame.
type FrameSnapshot struct {
	Number int      `json:"number"`
	Pins   int      `json:"pins"`
	Score  int      `json:"score"` // Points under the active model
	Rolls  []int    `json:"rolls"`
	Marks  []string `json:"marks"` // Scorecard symbols per roll
	Mark   Mark     `json:"mark,omitempty"`
}

// Snapshot is the authoritative game state published after each mutation
// batch. It shares no memory with the engine.
type Snapshot struct {
	Seq           uint64            `json:"seq"`
	State         State             `json:"state"`
	Frame         int               `json:"frame"`
	Roll          int               `json:"roll"`
	TotalFrames   int               `json:"total_frames"`
	Score         int               `json:"score"`
	PinsRemaining int               `json:"pins_remaining"`
	StrikeStreak  int               `json:"strike_streak"`
	SpareStreak   int               `json:"spare_streak"`
	GutterBalls   int               `json:"gutter_balls"`
	Model         string            `json:"model"`
	Frames        []FrameSnapshot   `json:"frames"`
	Achievements  []AchievementKind `json:"achievements,omitempty"`
	BallPending   bool              `json:"ball_pending,omitempty"`
}

// GameOver reports whether the snapshot is terminal.
func (s Snapshot) GameOver() bool {
	return s.State == StateGameOver
}

// Publisher receives snapshots from the authoritative engine.
type Publisher interface {
	Publish(Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

// Publish implements Publisher.
func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// Result is the final record of a finished game.
type Result struct {
	Total        int               `json:"total"`
	Model        string            `json:"model"`
	Frames       []FrameSnapshot   `json:"frames"`
	Achievements []AchievementKind `json:"achievements,omitempty"`
	GutterBalls  int               `json:"gutter_balls"`
}
