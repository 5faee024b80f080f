// Package bowling implements the frame scoring engine: the roll lifecycle
// state machine, pin bookkeeping, score accumulation, streak detection and
// settle arbitration for a game of ten-pin bowling.
//
// The engine is single-writer. One goroutine owns it and drives it through
// Tick and the command methods; everyone else observes Snapshot values
// delivered to a Publisher.
package bowling

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
)

// Options wires an Engine to its collaborators.
type Options struct {
	Ball      BallMotion
	Pins      PinSet
	Agent     PlayerAgent // May be nil until SetPlayerAgent
	Model     ScoreModel  // Nil selects the model named in config
	Publisher Publisher   // Nil disables snapshot publishing
	Logger    *log.Logger // Nil discards
}

// Engine is the authoritative state of one bowling game.
type Engine struct {
	cfg       config.BowlingConfig
	ball      BallMotion
	pins      PinSet
	agent     PlayerAgent
	model     ScoreModel
	publisher Publisher
	logger    *log.Logger
	handlers  []EventHandler

	state         State
	frame         int
	roll          int
	pinsTotal     int // Raw pins knocked this game
	pinsRemaining int
	startStanding int // Standing pins when the current ball was released
	knockedRoll   int
	knockedFrame  int
	strikeStreak  int
	spareStreak   int
	gutterBalls   int
	frames        []FrameRecord
	achievements  []AchievementKind

	ballStart   core.Vec3
	freshRack   bool // No ball has been thrown at the rack since it was set
	processed   bool // Current roll already resolved
	ending      bool // End of game scheduled or done
	ballPending bool // A ball is owed to the player agent
	nextPins    pinAction
	settleTimer time.Duration
	resetTimer  time.Duration
	endTimer    time.Duration

	seq     uint64
	dirty   bool
	pending []Event
}

// New creates an engine for a fresh game. Collaborators are not touched
// until Start.
func New(cfg config.BowlingConfig, opts Options) *Engine {
	e := &Engine{
		cfg:       cfg,
		ball:      opts.Ball,
		pins:      opts.Pins,
		agent:     opts.Agent,
		model:     opts.Model,
		publisher: opts.Publisher,
		logger:    opts.Logger,
	}
	if e.model == nil {
		e.model = ModelFor(cfg.Scoring.Model)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	e.resetCounters()
	return e
}

// Subscribe registers an event handler. Handlers run synchronously on the
// engine's goroutine after each mutation batch.
func (e *Engine) Subscribe(h EventHandler) {
	if h != nil {
		e.handlers = append(e.handlers, h)
	}
}

// SetPublisher replaces the snapshot publisher.
func (e *Engine) SetPublisher(p Publisher) {
	e.publisher = p
}

// Start spawns a fresh rack and issues the first ball.
func (e *Engine) Start() error {
	return e.restart(true)
}

// RestartGame resets every counter and the rack, then issues a new ball.
func (e *Engine) RestartGame() error {
	return e.restart(false)
}

func (e *Engine) restart(respawn bool) error {
	defer e.flush()

	e.pending = nil
	e.resetCounters()
	if e.ball != nil && e.ball.Valid() {
		e.ball.Destroy()
	}
	if respawn {
		e.pins.RespawnAll()
		e.pinsRemaining = e.cfg.Game.PinsPerRack
		e.freshRack = true
	} else {
		e.fullReset()
	}
	e.dirty = true
	e.emit(ScoreChangedEvent{Total: 0, Frame: 1})
	e.logger.Info("game started", "frames", e.cfg.Game.TotalFrames, "model", e.model.Name())
	return e.issueBall()
}

func (e *Engine) resetCounters() {
	if e.state != "" && e.state != StateWaitingForThrow {
		e.setState(StateWaitingForThrow)
	}
	e.state = StateWaitingForThrow
	e.frame = 1
	e.roll = 1
	e.pinsTotal = 0
	e.pinsRemaining = e.cfg.Game.PinsPerRack
	e.startStanding = e.cfg.Game.PinsPerRack
	e.knockedRoll = 0
	e.knockedFrame = 0
	e.strikeStreak = 0
	e.spareStreak = 0
	e.gutterBalls = 0
	e.frames = make([]FrameRecord, e.cfg.Game.TotalFrames)
	e.achievements = nil
	e.ballStart = core.Vec3{}
	e.freshRack = true
	e.processed = false
	e.ending = false
	e.nextPins = pinsKeep
	e.settleTimer = 0
	e.resetTimer = 0
	e.endTimer = 0
}

// SetPlayerAgent registers the receiver of new balls and delivers any ball
// that could not be issued earlier.
func (e *Engine) SetPlayerAgent(a PlayerAgent) error {
	e.agent = a
	if !e.ballPending || a == nil {
		return nil
	}
	defer e.flush()
	return e.issueBall()
}

// OnBallThrown starts a roll. It is ignored unless the engine is waiting
// for a throw.
func (e *Engine) OnBallThrown(start core.Vec3) {
	if e.state != StateWaitingForThrow {
		e.logger.Debug("ignoring throw", "state", e.state)
		return
	}
	defer e.flush()

	e.ballStart = start
	e.startStanding = e.pins.StandingCount()
	e.knockedRoll = 0
	e.processed = false
	e.setState(StateBallInPlay)
}

// OnBallEnterGutter records a gutter ball. It does not end the roll.
func (e *Engine) OnBallEnterGutter(left bool) {
	defer e.flush()

	e.gutterBalls++
	e.dirty = true
	e.emit(GutterBallEvent{Left: left, Count: e.gutterBalls})
}

// EndGame schedules the end of the game. Repeated calls have no effect.
func (e *Engine) EndGame() {
	defer e.flush()
	e.endGame()
}

// Tick advances the engine by one simulation step of length dt.
func (e *Engine) Tick(dt time.Duration) {
	defer e.flush()

	if e.ending {
		e.tickEnding(dt)
		return
	}

	switch e.state {
	case StateBallInPlay:
		e.pollBall()
	case StateSettling:
		e.pollSettle(dt)
	case StateResettingPins:
		e.tickReset(dt)
	}
}

// pollBall ends the roll once the ball is lost, gone past the pins, or stopped.
// Out of bounds is checked first so it preempts everything else.
func (e *Engine) pollBall() {
	lim := e.cfg.Roll

	var reason string
	switch {
	case !e.ball.Valid() || e.ball.OutOfBounds():
		reason = "out of bounds"
	case e.ball.DistanceFromStart() > lim.MaxDistance:
		reason = "max distance"
	case e.ball.ElapsedSinceThrow() > lim.MinTravelTime && e.ball.DistanceFromStart() > lim.PastPinsDistance:
		reason = "past pins"
	case e.ball.Speed() < lim.StopSpeed:
		reason = "stopped"
	default:
		return
	}

	e.logger.Debug("roll finished", "reason", reason, "frame", e.frame, "roll", e.roll)
	if e.ball.Valid() {
		e.ball.Destroy()
	}
	e.settleTimer = 0
	e.setState(StateSettling)
}

// pollSettle waits for the pins to come to rest, or for the settle timeout.
func (e *Engine) pollSettle(dt time.Duration) {
	if e.processed {
		return
	}
	e.settleTimer += dt
	if e.settleTimer < e.cfg.Settle.MinDelay {
		return
	}

	standing := e.pins.StandingCount()
	required := e.cfg.Settle.PartialDuration
	if standing == 0 {
		required = e.cfg.Settle.StrikeDuration
	}
	if !e.pins.AllStationary() && e.settleTimer <= required {
		return
	}

	e.processed = true
	e.resolve(standing)
}

// resolve counts the roll, updates score and streaks, then picks the next step.
func (e *Engine) resolve(standing int) {
	knocked := max(e.startStanding-standing, 0)
	e.knockedRoll = knocked
	e.knockedFrame += knocked
	e.pinsRemaining = standing
	e.pinsTotal += knocked

	fresh := e.freshRack
	e.freshRack = false

	rec := &e.frames[e.frame-1]
	rec.Pins += knocked
	rec.Rolls = append(rec.Rolls, knocked)
	e.dirty = true

	e.logger.Debug("roll resolved",
		"frame", e.frame, "roll", e.roll, "knocked", knocked, "remaining", standing)
	e.emit(ScoreChangedEvent{Total: e.Score(), Frame: e.frame, Pins: knocked})

	strike := false
	switch {
	case standing == 0 && fresh && e.startStanding == e.cfg.Game.PinsPerRack:
		strike = true
		e.strikeStreak++
		e.spareStreak = 0
		if rec.Mark == MarkNone {
			rec.Mark = MarkStrike
		}
		e.logger.Info("strike", "frame", e.frame, "streak", e.strikeStreak)
		e.emit(StrikeEvent{Frame: e.frame, Roll: e.roll, Streak: e.strikeStreak})
		if kind, ok := strikeAchievements[e.strikeStreak]; ok {
			e.award(kind)
		}

	case standing == 0:
		e.spareStreak++
		e.strikeStreak = 0
		if rec.Mark == MarkNone {
			rec.Mark = MarkSpare
		}
		e.logger.Info("spare", "frame", e.frame, "streak", e.spareStreak)
		e.emit(SpareEvent{Frame: e.frame, Streak: e.spareStreak})
		if first := rec.FirstRoll(); first >= 0 && first <= 2 {
			e.award(AchievementSplitPickup)
		}

	case e.roll >= 2:
		e.strikeStreak = 0
		e.spareStreak = 0
		if rec.Mark == MarkNone {
			rec.Mark = MarkOpen
		}
	}

	e.next(strike, standing)
}

// next applies the frame/roll transition table.
func (e *Engine) next(strike bool, standing int) {
	last := e.frame >= e.cfg.Game.TotalFrames

	switch {
	case !last && e.roll == 1 && strike:
		e.advanceFrame()
	case !last && e.roll == 1:
		e.roll = 2
		e.schedulePins(pinsClearKnocked)
	case !last:
		e.advanceFrame()
	case e.roll == 1 && strike:
		e.roll = 2
		e.schedulePins(pinsFullReset)
	case e.roll == 1:
		e.roll = 2
		e.schedulePins(pinsClearKnocked)
	case e.roll == 2 && standing == 0:
		e.roll = 3
		e.schedulePins(pinsFullReset)
	default:
		e.endGame()
	}
}

func (e *Engine) advanceFrame() {
	if e.frame+1 > e.cfg.Game.TotalFrames {
		e.endGame()
		return
	}
	e.frame++
	e.roll = 1
	e.knockedFrame = 0
	e.schedulePins(pinsFullReset)
}

func (e *Engine) schedulePins(a pinAction) {
	e.nextPins = a
	e.resetTimer = 0
	e.setState(StateResettingPins)
}

// tickReset holds the rack for the reset delay, then rearranges it and
// hands the player a new ball.
func (e *Engine) tickReset(dt time.Duration) {
	e.resetTimer += dt
	if e.resetTimer < e.cfg.Timing.PinResetDelay {
		return
	}

	switch e.nextPins {
	case pinsClearKnocked:
		e.pins.ClearKnockedDown()
		e.pinsRemaining = e.pins.StandingCount()
	case pinsFullReset:
		e.fullReset()
	}
	e.nextPins = pinsKeep
	e.setState(StateWaitingForThrow)
	_ = e.issueBall() // Logged; retried by SetPlayerAgent
}

// fullReset rebuilds the rack if any pin was removed, otherwise re-arms it.
func (e *Engine) fullReset() {
	if e.pins.AnyDestroyed() {
		e.pins.RespawnAll()
	} else {
		e.pins.FullReset()
	}
	e.pinsRemaining = e.cfg.Game.PinsPerRack
	e.freshRack = true
	e.dirty = true
}

func (e *Engine) endGame() {
	if e.ending || e.state == StateGameOver {
		return
	}
	e.ending = true
	e.endTimer = 0
	if e.ball != nil && e.ball.Valid() {
		e.ball.Destroy()
	}
	e.setState(StateResettingPins)
}

func (e *Engine) tickEnding(dt time.Duration) {
	if e.state == StateGameOver {
		return
	}
	e.endTimer += dt
	if e.endTimer < e.cfg.Timing.EndGameDelay {
		return
	}

	if e.cfg.Scoring.DetectCleanGame && isCleanGame(e.frames) {
		e.award(AchievementCleanGame)
	}
	if e.cfg.Scoring.DetectDutchman && isDutchman(e.frames) {
		e.award(AchievementDutchman)
	}

	e.setState(StateGameOver)
	total := e.Score()
	e.logger.Info("game over", "score", total, "gutters", e.gutterBalls)
	e.emit(GameOverEvent{Total: total})
}

func (e *Engine) issueBall() error {
	e.dirty = true
	if e.agent == nil {
		e.ballPending = true
		e.logger.Warn("cannot issue ball", "err", ErrNoPlayerAgent)
		return ErrNoPlayerAgent
	}
	if err := e.agent.IssueNewBall(); err != nil {
		e.ballPending = true
		e.logger.Warn("ball issue failed", "err", err)
		return fmt.Errorf("bowling: issue ball: %w", err)
	}
	e.ballPending = false
	return nil
}

func (e *Engine) award(kind AchievementKind) {
	e.achievements = append(e.achievements, kind)
	e.dirty = true
	e.logger.Info("achievement", "kind", kind, "frame", e.frame)
	e.emit(AchievementEvent{Kind: kind, Frame: e.frame})
}

func (e *Engine) setState(to State) {
	if e.state == to {
		return
	}
	from := e.state
	e.state = to
	e.dirty = true
	e.logger.Debug("state", "from", from, "to", to)
	e.emit(StateChangedEvent{From: from, To: to})
}

func (e *Engine) emit(ev Event) {
	e.pending = append(e.pending, ev)
}

// flush delivers queued events, then publishes a snapshot if anything changed.
func (e *Engine) flush() {
	if len(e.pending) == 0 && !e.dirty {
		return
	}
	events := e.pending
	e.pending = nil
	for _, ev := range events {
		for _, h := range e.handlers {
			h(ev)
		}
	}

	e.dirty = false
	e.seq++
	if e.publisher != nil {
		e.publisher.Publish(e.Snapshot())
	}
}

// isCleanGame reports whether every frame is a strike or spare.
func isCleanGame(frames []FrameRecord) bool {
	if len(frames) == 0 {
		return false
	}
	for _, f := range frames {
		if f.Mark != MarkStrike && f.Mark != MarkSpare {
			return false
		}
	}
	return true
}

// isDutchman reports a clean game whose frames alternate strike and spare.
func isDutchman(frames []FrameRecord) bool {
	if !isCleanGame(frames) {
		return false
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Mark == frames[i-1].Mark {
			return false
		}
	}
	return true
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Frame returns the current 1-based frame.
func (e *Engine) Frame() int { return e.frame }

// Roll returns the current 1-based roll within the frame.
func (e *Engine) Roll() int { return e.roll }

// Score returns the total under the active score model.
func (e *Engine) Score() int { return Total(e.model, e.frames, e.cfg.Game.PinsPerRack) }

// PinsRemaining returns the standing pin count as of the last resolve or reset.
func (e *Engine) PinsRemaining() int { return e.pinsRemaining }

// PinsKnockedThisRoll returns the pins counted for the last resolved roll.
func (e *Engine) PinsKnockedThisRoll() int { return e.knockedRoll }

// PinsKnockedThisFrame returns the pins counted so far in the current frame.
func (e *Engine) PinsKnockedThisFrame() int { return e.knockedFrame }

// StrikeStreak returns the consecutive strike count.
func (e *Engine) StrikeStreak() int { return e.strikeStreak }

// SpareStreak returns the consecutive spare count.
func (e *Engine) SpareStreak() int { return e.spareStreak }

// GutterBalls returns the number of gutter balls this game.
func (e *Engine) GutterBalls() int { return e.gutterBalls }

// BallStart returns where the current ball was released.
func (e *Engine) BallStart() core.Vec3 { return e.ballStart }

// BallPending reports whether a ball is owed to the player agent.
func (e *Engine) BallPending() bool { return e.ballPending }

// Config returns the engine configuration.
func (e *Engine) Config() config.BowlingConfig { return e.cfg }

// FrameScores returns per-frame points under the active model.
func (e *Engine) FrameScores() []int {
	return e.model.FrameScores(e.frames, e.cfg.Game.PinsPerRack)
}

// Frames returns a copy of the frame records.
func (e *Engine) Frames() []FrameRecord {
	out := make([]FrameRecord, len(e.frames))
	for i, f := range e.frames {
		out[i] = f.clone()
	}
	return out
}

// Achievements returns the achievements earned so far, in order.
func (e *Engine) Achievements() []AchievementKind {
	return append([]AchievementKind(nil), e.achievements...)
}

// Snapshot returns a copy of the authoritative state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Seq:           e.seq,
		State:         e.state,
		Frame:         e.frame,
		Roll:          e.roll,
		TotalFrames:   e.cfg.Game.TotalFrames,
		Score:         e.Score(),
		PinsRemaining: e.pinsRemaining,
		StrikeStreak:  e.strikeStreak,
		SpareStreak:   e.spareStreak,
		GutterBalls:   e.gutterBalls,
		Model:         e.model.Name(),
		Frames:        e.frameSnapshots(),
		Achievements:  e.Achievements(),
		BallPending:   e.ballPending,
	}
}

// Result returns the record of the game for persistence.
func (e *Engine) Result() Result {
	return Result{
		Total:        e.Score(),
		Model:        e.model.Name(),
		Frames:       e.frameSnapshots(),
		Achievements: e.Achievements(),
		GutterBalls:  e.gutterBalls,
	}
}

func (e *Engine) frameSnapshots() []FrameSnapshot {
	scores := e.FrameScores()
	out := make([]FrameSnapshot, len(e.frames))
	for i, f := range e.frames {
		out[i] = FrameSnapshot{
			Number: i + 1,
			Pins:   f.Pins,
			Score:  scores[i],
			Rolls:  append([]int(nil), f.Rolls...),
			Marks:  f.RollSymbols(e.cfg.Game.PinsPerRack),
			Mark:   f.Mark,
		}
	}
	return out
}
