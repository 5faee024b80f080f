package multiplayer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
)

// fakeGame scores one point per throw and ends after overAt points.
type fakeGame struct {
	steps  int
	seq    uint64
	score  int
	overAt int
}

func (g *fakeGame) Reset(core.RuntimeConfig) {
	g.steps, g.score = 0, 0
	g.seq++
}

func (g *fakeGame) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionRestart) {
		g.Reset(core.RuntimeConfig{})
		return core.StepResult{}
	}
	if g.IsGameOver() {
		return core.StepResult{}
	}
	g.steps++
	if in.Has(core.ActionThrow) {
		g.score++
		g.seq++
	}
	return core.StepResult{}
}

func (g *fakeGame) Snapshot() bowlgame.View {
	state := bowling.StateWaitingForThrow
	if g.IsGameOver() {
		state = bowling.StateGameOver
	}
	return bowlgame.View{
		Tick: uint64(g.steps),
		Game: bowling.Snapshot{Seq: g.seq, State: state, Frame: 1, Score: g.score},
	}
}

func (g *fakeGame) Result() bowling.Result {
	return bowling.Result{Total: g.score, Model: "additive"}
}

func (g *fakeGame) IsGameOver() bool {
	return g.overAt > 0 && g.score >= g.overAt
}

type saverFunc func(ResultData) error

func (f saverFunc) SaveLaneResult(d ResultData) error { return f(d) }

var quiet = log.New(io.Discard)

func throwInput() core.InputFrame {
	in := core.NewInputFrame()
	in.Set(core.ActionThrow)
	return in
}

func restartInput() core.InputFrame {
	in := core.NewInputFrame()
	in.Set(core.ActionRestart)
	return in
}

// next waits for the next event of type T, skipping others.
func next[T SessionEvent](t *testing.T, s *ChannelSession) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-s.Events():
			if e, ok := evt.(T); ok {
				return e
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func pending(s *ChannelSession) int {
	return len(s.events)
}

func newTestLane(game *fakeGame) (*Lane, *ChannelSession) {
	bowler := NewChannelSession("bowler", 16)
	return NewLane("ABCDEF", "alice", game, bowler, 60, quiet), bowler
}

func TestChannelSessionDropsOldest(t *testing.T) {
	s := NewChannelSession("s1", 2)
	for i := 1; i <= 3; i++ {
		s.Send(SnapshotEvent{View: bowlgame.View{Tick: uint64(i)}})
	}

	if s.Dropped() != 1 {
		t.Errorf("Dropped = %d, expected 1", s.Dropped())
	}
	for _, want := range []uint64{2, 3} {
		got := (<-s.Events()).(SnapshotEvent).View.Tick
		if got != want {
			t.Errorf("tick = %d, expected %d", got, want)
		}
	}

	s.Close()
	s.Close()
	s.Send(LaneErrorEvent{Message: "late"})
	if pending(s) != 0 {
		t.Error("closed session should not queue events")
	}
}

func TestLaneBroadcastsOnlyChanges(t *testing.T) {
	lane, bowler := newTestLane(&fakeGame{})
	spectator := NewChannelSession("watcher", 16)

	if err := lane.Watch(spectator); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}
	next[SnapshotEvent](t, spectator)

	lane.step()
	lane.step()
	if pending(spectator) != 0 || pending(bowler) != 0 {
		t.Fatal("ticks without changes must not broadcast")
	}

	if err := lane.Input(throwInput()); err != nil {
		t.Fatalf("Input() failed: %v", err)
	}
	lane.step()

	for _, s := range []*ChannelSession{bowler, spectator} {
		evt := next[SnapshotEvent](t, s)
		if evt.View.Game.Score != 1 || evt.Code != "ABCDEF" {
			t.Errorf("%s got %+v", s.ID(), evt)
		}
	}
	if got := lane.View().Game.Score; got != 1 {
		t.Errorf("View().Game.Score = %d", got)
	}
}

func TestLaneReportsEachFinishedGameOnce(t *testing.T) {
	lane, bowler := newTestLane(&fakeGame{overAt: 2})
	var results []ResultData
	lane.onFinish = func(d ResultData) { results = append(results, d) }

	for i := 0; i < 2; i++ {
		lane.Input(throwInput())
		lane.step()
	}
	lane.step()
	lane.step()

	if len(results) != 1 {
		t.Fatalf("got %d results, expected 1", len(results))
	}
	first := results[0]
	if first.Result.Total != 2 || first.Player != "alice" || first.LaneCode != "ABCDEF" {
		t.Errorf("result = %+v", first)
	}
	if evt := next[GameFinishedEvent](t, bowler); evt.GameID != first.GameID {
		t.Errorf("finished event game = %s, expected %s", evt.GameID, first.GameID)
	}

	lane.Input(restartInput())
	lane.step()
	if lane.GameID() == first.GameID {
		t.Error("restart should start a new game id")
	}
	for i := 0; i < 2; i++ {
		lane.Input(throwInput())
		lane.step()
	}

	if len(results) != 2 {
		t.Fatalf("got %d results after second game, expected 2", len(results))
	}
	if results[1].GameID == first.GameID {
		t.Error("second game reused the first game id")
	}
}

func TestLaneClosedRejectsCommands(t *testing.T) {
	lane, _ := newTestLane(&fakeGame{})
	lane.Stop(CloseReasonShutdown)
	lane.Stop(CloseReasonExpired)

	if err := lane.Input(throwInput()); !errors.Is(err, ErrLaneClosed) {
		t.Errorf("Input() err = %v, expected ErrLaneClosed", err)
	}
	if err := lane.Watch(NewChannelSession("late", 4)); !errors.Is(err, ErrLaneClosed) {
		t.Errorf("Watch() err = %v, expected ErrLaneClosed", err)
	}
	if lane.reason != CloseReasonShutdown {
		t.Errorf("reason = %s, expected first reason kept", lane.reason)
	}
}

func TestLaneStopsWhenBowlerLeaves(t *testing.T) {
	lane, bowler := newTestLane(&fakeGame{})
	spectator := NewChannelSession("watcher", 16)
	lane.Watch(spectator)

	go lane.Run(nil)
	bowler.Close()

	select {
	case <-lane.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("lane did not stop after bowler left")
	}
	if evt := next[LaneClosedEvent](t, spectator); evt.Reason != CloseReasonBowlerLeft {
		t.Errorf("close reason = %s", evt.Reason)
	}
}

func TestLaneUnwatch(t *testing.T) {
	lane, _ := newTestLane(&fakeGame{})
	spectator := NewChannelSession("watcher", 16)
	lane.Watch(spectator)
	next[SnapshotEvent](t, spectator)

	lane.Unwatch(spectator.ID())
	lane.Input(throwInput())
	lane.step()

	if lane.Spectators() != 0 || pending(spectator) != 0 {
		t.Error("unwatched spectator still receives events")
	}
}

func newTestHub(game func() *fakeGame) *Hub {
	cfg := DefaultHubConfig()
	cfg.TickRate = 500
	return NewHub(cfg, func(core.RuntimeConfig) (HostedGame, error) {
		return game(), nil
	}, quiet)
}

func TestHubOpenWatchList(t *testing.T) {
	hub := newTestHub(func() *fakeGame { return &fakeGame{} })
	defer hub.Stop()

	bowler := NewChannelSession("bowler", 64)
	lane, err := hub.Open(bowler, "alice")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	opened := next[LaneOpenedEvent](t, bowler)
	if opened.Code != lane.Code() || len(opened.Code) != 6 {
		t.Errorf("opened event = %+v", opened)
	}

	spectator := NewChannelSession("watcher", 64)
	if _, err := hub.Watch(strings.ToLower(lane.Code()), spectator); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}
	if _, err := hub.Watch("NOPE99", NewChannelSession("x", 4)); !errors.Is(err, ErrLaneNotFound) {
		t.Errorf("Watch(unknown) err = %v", err)
	}

	list := hub.List()
	if len(list) != 1 || list[0].Player != "alice" || list[0].Spectators != 1 {
		t.Errorf("List() = %+v", list)
	}
	if hub.SessionCount() != 2 {
		t.Errorf("SessionCount = %d, expected 2", hub.SessionCount())
	}

	hub.Unwatch(spectator.ID())
	if lane.Spectators() != 0 {
		t.Error("Unwatch did not detach spectator")
	}

	if err := hub.Close(lane.Code()); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	<-lane.Done()
	deadline := time.Now().Add(2 * time.Second)
	for hub.LaneCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.LaneCount() != 0 {
		t.Error("closed lane still listed")
	}
	if err := hub.Close("ZZZZZZ"); !errors.Is(err, ErrLaneNotFound) {
		t.Errorf("Close(unknown) err = %v", err)
	}
}

func TestHubSavesFinishedGames(t *testing.T) {
	saved := make(chan ResultData, 1)
	hub := newTestHub(func() *fakeGame { return &fakeGame{overAt: 1} })
	hub.SetResultSaver(saverFunc(func(d ResultData) error {
		saved <- d
		return nil
	}))
	defer hub.Stop()

	lane, err := hub.Open(NewChannelSession("bowler", 64), "bob")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	lane.Input(throwInput())

	select {
	case d := <-saved:
		if d.Player != "bob" || d.LaneCode != lane.Code() || d.Result.Total != 1 {
			t.Errorf("saved %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finished game was not saved")
	}
}

func TestHubExpiresIdleLanes(t *testing.T) {
	hub := newTestHub(func() *fakeGame { return &fakeGame{} })
	hub.config.IdleTimeout = time.Minute
	defer hub.Stop()

	bowler := NewChannelSession("bowler", 64)
	lane, _ := hub.Open(bowler, "carol")

	hub.expireIdleLanes(time.Now())
	select {
	case <-lane.Done():
		t.Fatal("fresh lane expired")
	default:
	}

	hub.expireIdleLanes(time.Now().Add(2 * time.Minute))
	if evt := next[LaneClosedEvent](t, bowler); evt.Reason != CloseReasonExpired {
		t.Errorf("close reason = %s", evt.Reason)
	}
}

func TestHubStopClosesLanes(t *testing.T) {
	hub := newTestHub(func() *fakeGame { return &fakeGame{} })
	lane, _ := hub.Open(NewChannelSession("bowler", 64), "dave")

	hub.Stop()

	select {
	case <-lane.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not close lane")
	}
	if _, err := hub.Open(NewChannelSession("late", 4), "eve"); !errors.Is(err, ErrLaneClosed) {
		t.Errorf("Open after Stop err = %v", err)
	}
}

func TestJoinCode(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	for i := 0; i < 50; i++ {
		code := generateJoinCode()
		if len(code) != 6 {
			t.Fatalf("code %q length %d", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("code %q has invalid rune %q", code, r)
			}
		}
	}
}

func TestLaneHostsBowlingGame(t *testing.T) {
	game := bowlgame.NewWithConfig(config.DefaultBowlingConfig())
	game.Reset(core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 3})

	bowler := NewChannelSession("bowler", 256)
	lane := NewLane("LANE01", "alice", game, bowler, 60, quiet)

	lane.Input(throwInput())
	lane.step()
	for i := 0; i < 30; i++ {
		lane.step()
	}
	lane.Input(throwInput())
	lane.step()

	var last SnapshotEvent
	for pending(bowler) > 0 {
		if evt, ok := (<-bowler.Events()).(SnapshotEvent); ok {
			last = evt
		}
	}
	if last.View.Game.TotalFrames != 10 || last.View.Game.State != bowling.StateBallInPlay {
		t.Errorf("last view = frame %d/%d state %s",
			last.View.Game.Frame, last.View.Game.TotalFrames, last.View.Game.State)
	}
}
