package bowling

// Event is a one-way notification from the engine.
// Handlers must not call back into the engine.
type Event interface {
	bowlingEvent()
}

// EventHandler receives engine events.
type EventHandler func(Event)

// AchievementKind names a streak or game achievement.
type AchievementKind string

const (
	AchievementDouble      AchievementKind = "double"
	AchievementTurkey      AchievementKind = "turkey"
	AchievementHambone     AchievementKind = "hambone"
	AchievementYahtzee     AchievementKind = "yahtzee"
	AchievementSixPack     AchievementKind = "six_pack"
	AchievementPerfectGame AchievementKind = "perfect_game"
	AchievementSplitPickup AchievementKind = "split_pickup"
	AchievementCleanGame   AchievementKind = "clean_game"
	AchievementDutchman    AchievementKind = "dutchman"
)

// Title returns the display name of the achievement.
func (k AchievementKind) Title() string {
	switch k {
	case AchievementDouble:
		return "Double"
	case AchievementTurkey:
		return "Turkey"
	case AchievementHambone:
		return "Hambone"
	case AchievementYahtzee:
		return "Yahtzee"
	case AchievementSixPack:
		return "Six Pack"
	case AchievementPerfectGame:
		return "Perfect Game"
	case AchievementSplitPickup:
		return "Split Pickup"
	case AchievementCleanGame:
		return "Clean Game"
	case AchievementDutchman:
		return "Dutchman"
	default:
		return string(k)
	}
}

// strikeAchievements maps an exact strike streak length to its achievement.
var strikeAchievements = map[int]AchievementKind{
	2:  AchievementDouble,
	3:  AchievementTurkey,
	4:  AchievementHambone,
	5:  AchievementYahtzee,
	6:  AchievementSixPack,
	12: AchievementPerfectGame,
}

// ScoreChangedEvent is fired after every resolved roll.
type ScoreChangedEvent struct {
	Total int // Score under the active model
	Frame int
	Pins  int // Pins knocked by the roll
}

func (ScoreChangedEvent) bowlingEvent() {}

// StateChangedEvent is fired on every lifecycle transition.
type StateChangedEvent struct {
	From State
	To   State
}

func (StateChangedEvent) bowlingEvent() {}

// StrikeEvent is fired when a full rack falls on one ball.
type StrikeEvent struct {
	Frame  int
	Roll   int
	Streak int
}

func (StrikeEvent) bowlingEvent() {}

// SpareEvent is fired when the remaining pins of a frame are cleared.
type SpareEvent struct {
	Frame  int
	Streak int
}

func (SpareEvent) bowlingEvent() {}

// GutterBallEvent is fired when the ball drops into a gutter.
type GutterBallEvent struct {
	Left  bool
	Count int // Gutter balls this game
}

func (GutterBallEvent) bowlingEvent() {}

// GameOverEvent is fired once per game.
type GameOverEvent struct {
	Total int
}

func (GameOverEvent) bowlingEvent() {}

// AchievementEvent is fired when an achievement is earned.
type AchievementEvent struct {
	Kind  AchievementKind
	Frame int
}

func (AchievementEvent) bowlingEvent() {}
