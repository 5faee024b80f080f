package multiplayer

import (
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/core"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
)

var (
	// ErrLaneNotFound is returned when no lane has the given code.
	ErrLaneNotFound = errors.New("multiplayer: lane not found")

	// ErrLaneClosed is returned when a lane has already shut down.
	ErrLaneClosed = errors.New("multiplayer: lane closed")
)

// HostedGame is the game a lane simulates. The bowling game satisfies it.
type HostedGame interface {
	Reset(cfg core.RuntimeConfig)
	Step(in core.InputFrame) core.StepResult
	Snapshot() bowlgame.View
	Result() bowling.Result
	IsGameOver() bool
}

// Lane is one authoritative bowling lane. A single goroutine (Run) owns
// the game; the bowler's input arrives through an inbox and every change
// is broadcast to the bowler and all spectators.
type Lane struct {
	code     string
	player   string
	game     HostedGame
	bowler   SessionHandle
	tickRate int
	logger   *log.Logger

	inbox chan core.InputFrame
	input core.InputFrame

	mu         sync.RWMutex
	spectators map[SessionID]SessionHandle
	last       bowlgame.View
	gameID     uuid.UUID
	gameStart  time.Time
	finished   bool
	openedAt   time.Time
	lastActive time.Time

	onFinish func(ResultData)

	done     chan struct{}
	doneOnce sync.Once
	reason   CloseReason
}

// NewLane creates a lane around a game that has already been Reset.
func NewLane(code, player string, game HostedGame, bowler SessionHandle, tickRate int, logger *log.Logger) *Lane {
	if tickRate <= 0 {
		tickRate = 60
	}
	if logger == nil {
		logger = log.Default()
	}
	now := time.Now()
	return &Lane{
		code:       code,
		player:     player,
		game:       game,
		bowler:     bowler,
		tickRate:   tickRate,
		logger:     logger.With("lane", code),
		inbox:      make(chan core.InputFrame, 64),
		input:      core.NewInputFrame(),
		spectators: make(map[SessionID]SessionHandle),
		last:       game.Snapshot(),
		gameID:     uuid.New(),
		gameStart:  now,
		openedAt:   now,
		lastActive: now,
		done:       make(chan struct{}),
	}
}

// Code returns the join code of the lane.
func (l *Lane) Code() string { return l.code }

// Player returns the bowler's display name.
func (l *Lane) Player() string { return l.player }

// GameID returns the identifier of the game currently on the lane.
func (l *Lane) GameID() uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gameID
}

// View returns the most recently broadcast view.
func (l *Lane) View() bowlgame.View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Info summarizes the lane for listings.
func (l *Lane) Info() LaneInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return LaneInfo{
		Code:       l.code,
		Player:     l.player,
		GameID:     l.gameID,
		State:      l.last.Game.State,
		Frame:      l.last.Game.Frame,
		Score:      l.last.Game.Score,
		Spectators: len(l.spectators),
		OpenedAt:   l.openedAt,
	}
}

// Input queues bowler input for the next tick.
// Non-blocking; input is dropped when the inbox is full.
func (l *Lane) Input(in core.InputFrame) error {
	select {
	case <-l.done:
		return ErrLaneClosed
	default:
	}

	l.mu.Lock()
	l.lastActive = time.Now()
	l.mu.Unlock()

	select {
	case l.inbox <- in.Clone():
	default:
	}
	return nil
}

// Watch adds a read-only spectator and sends it the current view.
func (l *Lane) Watch(s SessionHandle) error {
	select {
	case <-l.done:
		return ErrLaneClosed
	default:
	}

	l.mu.Lock()
	l.spectators[s.ID()] = s
	view := l.last
	l.mu.Unlock()

	s.Send(SnapshotEvent{Code: l.code, View: view})
	l.logger.Debug("spectator joined", "session", s.ID())
	return nil
}

// Unwatch removes a spectator.
func (l *Lane) Unwatch(id SessionID) {
	l.mu.Lock()
	delete(l.spectators, id)
	l.mu.Unlock()
}

// Spectators returns the number of watching sessions.
func (l *Lane) Spectators() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.spectators)
}

// IdleSince returns the time of the last bowler input.
func (l *Lane) IdleSince() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastActive
}

// Done returns a channel that closes when the lane stops.
func (l *Lane) Done() <-chan struct{} {
	return l.done
}

// Run drives the lane until it is stopped or the bowler leaves.
// onFinish is called from the lane goroutine for every finished game.
func (l *Lane) Run(onFinish func(ResultData)) {
	l.onFinish = onFinish

	ticker := time.NewTicker(time.Second / time.Duration(l.tickRate))
	defer ticker.Stop()

	var bowlerDone <-chan struct{}
	if l.bowler != nil {
		bowlerDone = l.bowler.Done()
	}

	for {
		select {
		case <-ticker.C:
			l.step()

		case <-bowlerDone:
			l.Stop(CloseReasonBowlerLeft)

		case <-l.done:
			l.broadcast(LaneClosedEvent{Code: l.code, Reason: l.reason})
			l.logger.Info("lane closed", "reason", l.reason)
			return
		}
	}
}

// step advances the simulation by one tick and broadcasts any change.
func (l *Lane) step() {
	l.drainInbox()

	restart := l.input.Has(core.ActionRestart)
	l.game.Step(l.input)
	l.input.Clear()

	view := l.game.Snapshot()
	over := l.game.IsGameOver()

	l.mu.Lock()
	changed := viewChanged(l.last, view)
	l.last = view
	var finished *ResultData
	switch {
	case over && !l.finished:
		l.finished = true
		finished = &ResultData{
			GameID:   l.gameID,
			LaneCode: l.code,
			Player:   l.player,
			Result:   l.game.Result(),
			Duration: time.Since(l.gameStart),
		}
	case restart && !over:
		l.finished = false
		l.gameID = uuid.New()
		l.gameStart = time.Now()
	}
	l.mu.Unlock()

	if changed {
		l.broadcast(SnapshotEvent{Code: l.code, View: view})
	}
	if finished != nil {
		l.logger.Info("game finished", "game", finished.GameID, "total", finished.Result.Total)
		l.broadcast(GameFinishedEvent{Code: l.code, GameID: finished.GameID, Result: finished.Result})
		if l.onFinish != nil {
			l.onFinish(*finished)
		}
	}
}

func (l *Lane) drainInbox() {
	for {
		select {
		case in := <-l.inbox:
			l.input.Merge(in)
		default:
			return
		}
	}
}

// broadcast sends an event to the bowler and every spectator.
func (l *Lane) broadcast(evt SessionEvent) {
	l.mu.RLock()
	targets := make([]SessionHandle, 0, len(l.spectators)+1)
	if l.bowler != nil {
		targets = append(targets, l.bowler)
	}
	for _, s := range l.spectators {
		targets = append(targets, s)
	}
	l.mu.RUnlock()

	for _, s := range targets {
		s.Send(evt)
	}
}

// Stop shuts the lane down. Only the first reason is kept.
func (l *Lane) Stop(reason CloseReason) {
	l.doneOnce.Do(func() {
		l.reason = reason
		close(l.done)
	})
}

// viewChanged reports whether anything other than the tick counter moved.
func viewChanged(prev, next bowlgame.View) bool {
	prev.Tick, next.Tick = 0, 0
	return !reflect.DeepEqual(prev, next)
}
