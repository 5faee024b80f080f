package bowling

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
)

func TestStartState(t *testing.T) {
	h := newHarness(t)

	if h.e.State() != StateWaitingForThrow {
		t.Errorf("State = %s, expected %s", h.e.State(), StateWaitingForThrow)
	}
	if h.e.Frame() != 1 || h.e.Roll() != 1 || h.e.Score() != 0 {
		t.Errorf("frame=%d roll=%d score=%d, expected 1/1/0", h.e.Frame(), h.e.Roll(), h.e.Score())
	}
	if h.pins.respawns != 1 {
		t.Errorf("Start should spawn a fresh rack, respawns=%d", h.pins.respawns)
	}
	if h.agent.issued != 1 {
		t.Errorf("Start should issue one ball, issued=%d", h.agent.issued)
	}
	if h.e.PinsRemaining() != 10 {
		t.Errorf("PinsRemaining = %d, expected 10", h.e.PinsRemaining())
	}
}

func TestFirstFrameStrike(t *testing.T) {
	h := newHarness(t)

	h.throw(t, 10)

	if h.e.PinsRemaining() != 0 {
		t.Errorf("PinsRemaining after resolve = %d, expected 0", h.e.PinsRemaining())
	}
	if h.e.StrikeStreak() != 1 || h.e.SpareStreak() != 0 {
		t.Errorf("streaks strike=%d spare=%d, expected 1/0", h.e.StrikeStreak(), h.e.SpareStreak())
	}
	if countEvents[StrikeEvent](h.events) != 1 {
		t.Errorf("expected one StrikeEvent, got %d", countEvents[StrikeEvent](h.events))
	}
	if h.e.Frame() != 2 || h.e.Roll() != 1 {
		t.Errorf("frame=%d roll=%d, expected 2/1", h.e.Frame(), h.e.Roll())
	}
	if h.e.State() != StateResettingPins {
		t.Errorf("State = %s, expected %s", h.e.State(), StateResettingPins)
	}

	h.tickUntil(t, func() bool { return h.e.State() == StateWaitingForThrow })

	if h.e.PinsRemaining() != 10 || h.pins.standing != 10 {
		t.Errorf("rack not fully reset: remaining=%d standing=%d", h.e.PinsRemaining(), h.pins.standing)
	}
	if h.pins.resets != 1 {
		t.Errorf("expected FullReset in place, resets=%d respawns=%d", h.pins.resets, h.pins.respawns)
	}
	if h.agent.issued != 2 {
		t.Errorf("expected a new ball, issued=%d", h.agent.issued)
	}
}

func TestSpare(t *testing.T) {
	h := newHarness(t)

	h.roll(t, 7)
	if h.e.PinsRemaining() != 3 {
		t.Errorf("PinsRemaining = %d, expected 3", h.e.PinsRemaining())
	}
	if h.e.PinsKnockedThisFrame() != 7 {
		t.Errorf("PinsKnockedThisFrame = %d, expected 7", h.e.PinsKnockedThisFrame())
	}
	if h.e.StrikeStreak() != 0 || h.e.SpareStreak() != 0 {
		t.Error("first roll of a frame must not touch streaks")
	}
	if h.e.Roll() != 2 || h.e.Frame() != 1 {
		t.Errorf("frame=%d roll=%d, expected 1/2", h.e.Frame(), h.e.Roll())
	}
	if h.pins.clears != 1 {
		t.Errorf("expected knocked pins cleared once, got %d", h.pins.clears)
	}

	h.roll(t, 3)
	if countEvents[StrikeEvent](h.events) != 0 {
		t.Error("clearing the last 3 pins must not count as a strike")
	}
	if countEvents[SpareEvent](h.events) != 1 {
		t.Errorf("expected one SpareEvent, got %d", countEvents[SpareEvent](h.events))
	}
	if countAchievements(h.events, AchievementSplitPickup) != 0 {
		t.Error("split pickup must not fire after a 7 count")
	}
	if h.e.SpareStreak() != 1 {
		t.Errorf("SpareStreak = %d, expected 1", h.e.SpareStreak())
	}
	if h.e.Frame() != 2 || h.e.Roll() != 1 {
		t.Errorf("frame=%d roll=%d, expected 2/1", h.e.Frame(), h.e.Roll())
	}
	// Knocked pins were removed, so the next rack is respawned
	if h.pins.respawns != 2 {
		t.Errorf("expected rack respawn after destroyed pins, respawns=%d", h.pins.respawns)
	}
}

func TestSplitPickup(t *testing.T) {
	h := newHarness(t)

	h.rollAll(t, 1, 9)

	if countEvents[SpareEvent](h.events) != 1 {
		t.Errorf("expected one SpareEvent, got %d", countEvents[SpareEvent](h.events))
	}
	if countAchievements(h.events, AchievementSplitPickup) != 1 {
		t.Errorf("expected one split pickup, got %d", countAchievements(h.events, AchievementSplitPickup))
	}
}

func TestGutterThenAllTenIsSpare(t *testing.T) {
	h := newHarness(t)

	h.rollAll(t, 0, 10)

	if countEvents[StrikeEvent](h.events) != 0 {
		t.Error("ten pins on the second ball must not be a strike")
	}
	if h.e.SpareStreak() != 1 {
		t.Errorf("SpareStreak = %d, expected 1", h.e.SpareStreak())
	}
	frames := h.e.Frames()
	if frames[0].Mark != MarkSpare {
		t.Errorf("frame 1 mark = %q, expected spare", frames[0].Mark)
	}
	if got := frames[0].RollSymbols(10); len(got) != 2 || got[0] != "-" || got[1] != "/" {
		t.Errorf("RollSymbols = %v, expected [- /]", got)
	}
}

func TestOpenFrameBreaksStreaks(t *testing.T) {
	h := newHarness(t)

	h.roll(t, 10)
	h.roll(t, 3)
	if h.e.StrikeStreak() != 1 {
		t.Errorf("StrikeStreak after first ball = %d, expected 1", h.e.StrikeStreak())
	}

	h.roll(t, 4)
	if h.e.StrikeStreak() != 0 || h.e.SpareStreak() != 0 {
		t.Errorf("open frame must clear streaks, strike=%d spare=%d", h.e.StrikeStreak(), h.e.SpareStreak())
	}
	if h.e.Frames()[1].Mark != MarkOpen {
		t.Errorf("frame 2 mark = %q, expected open", h.e.Frames()[1].Mark)
	}
}

func TestSpareBreaksStrikeStreak(t *testing.T) {
	h := newHarness(t)

	h.rollAll(t, 10, 10, 6, 4)

	if h.e.StrikeStreak() != 0 || h.e.SpareStreak() != 1 {
		t.Errorf("strike=%d spare=%d, expected 0/1", h.e.StrikeStreak(), h.e.SpareStreak())
	}

	h.roll(t, 10)
	if h.e.StrikeStreak() != 1 || h.e.SpareStreak() != 0 {
		t.Errorf("strike=%d spare=%d, expected 1/0", h.e.StrikeStreak(), h.e.SpareStreak())
	}
}

func TestPerfectGame(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 12; i++ {
		if i < 11 && countAchievements(h.events, AchievementPerfectGame) != 0 {
			t.Fatalf("perfect game fired early, after %d strikes", i)
		}
		h.roll(t, 10)
	}

	if h.e.State() != StateGameOver {
		t.Fatalf("State = %s, expected game over after 12 strikes", h.e.State())
	}
	if got := len(h.e.Frames()[9].Rolls); got != 3 {
		t.Errorf("frame 10 rolls = %d, expected 3", got)
	}
	if h.e.Score() != 120 {
		t.Errorf("additive score = %d, expected 120", h.e.Score())
	}

	kinds := []AchievementKind{
		AchievementDouble, AchievementTurkey, AchievementHambone,
		AchievementYahtzee, AchievementSixPack, AchievementPerfectGame,
	}
	for _, k := range kinds {
		if n := countAchievements(h.events, k); n != 1 {
			t.Errorf("%s fired %d times, expected 1", k, n)
		}
	}
	if countEvents[GameOverEvent](h.events) != 1 {
		t.Errorf("expected one GameOverEvent, got %d", countEvents[GameOverEvent](h.events))
	}
}

func TestTenthFrame(t *testing.T) {
	tests := []struct {
		name      string
		tenth     []int
		wantRolls int
	}{
		{"open ends after two", []int{3, 4}, 2},
		{"spare earns bonus ball", []int{7, 3, 5}, 3},
		{"two strikes earn bonus", []int{10, 10, 2}, 3},
		{"strike then open ends", []int{10, 4}, 2},
		{"gutter then ten earns bonus", []int{0, 10, 10}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			for i := 0; i < 9; i++ {
				h.rollAll(t, 3, 4)
			}
			if h.e.Frame() != 10 {
				t.Fatalf("Frame = %d, expected 10", h.e.Frame())
			}

			for i, k := range tc.tenth {
				if h.e.State() == StateGameOver {
					t.Fatalf("game ended early before roll %d", i+1)
				}
				if h.e.Roll() != i+1 {
					t.Fatalf("Roll = %d, expected %d", h.e.Roll(), i+1)
				}
				h.roll(t, k)
			}

			if h.e.State() != StateGameOver {
				t.Fatalf("State = %s, expected game over", h.e.State())
			}
			if got := len(h.e.Frames()[9].Rolls); got != tc.wantRolls {
				t.Errorf("frame 10 rolls = %d, expected %d", got, tc.wantRolls)
			}
		})
	}
}

func TestDuplicateThrowIgnored(t *testing.T) {
	h := newHarness(t)

	h.e.OnBallThrown(core.Vec3{})
	h.pins.standing = 4
	h.e.OnBallThrown(core.Vec3{X: 5})

	if h.e.BallStart() != (core.Vec3{}) {
		t.Error("second throw must not overwrite the roll context")
	}

	h.ball.speed = 0
	h.pins.stationary = true
	h.tickUntil(t, func() bool { return h.e.State() == StateResettingPins })

	if h.e.PinsKnockedThisRoll() != 6 {
		t.Errorf("PinsKnockedThisRoll = %d, expected 6", h.e.PinsKnockedThisRoll())
	}
}

func TestEndGameIdempotent(t *testing.T) {
	h := newHarness(t)

	h.e.EndGame()
	h.e.EndGame()
	h.tickUntil(t, func() bool { return h.e.State() == StateGameOver })
	h.e.EndGame()
	for i := 0; i < 100; i++ {
		h.e.Tick(tickStep)
	}

	if n := countEvents[GameOverEvent](h.events); n != 1 {
		t.Errorf("GameOverEvent fired %d times, expected 1", n)
	}
}

func TestEndGameDelay(t *testing.T) {
	h := newHarness(t)

	h.e.EndGame()
	ticks := 0
	h.tickUntil(t, func() bool {
		ticks++
		return h.e.State() == StateGameOver
	})

	want := int(2*time.Second/tickStep) + 1
	if ticks != want {
		t.Errorf("game over after %d polls, expected %d", ticks, want)
	}
}

func TestSettleTimeoutOnWobblingPins(t *testing.T) {
	tests := []struct {
		name     string
		knock    int
		required time.Duration
	}{
		{"partial", 4, 3 * time.Second},
		{"all down", 10, 1500 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)

			h.e.OnBallThrown(core.Vec3{})
			h.ball.speed = 0
			h.pins.standing -= tc.knock
			h.pins.stationary = false
			h.e.Tick(tickStep)
			if h.e.State() != StateSettling {
				t.Fatalf("State = %s, expected settling", h.e.State())
			}

			for elapsed := tickStep; elapsed <= tc.required; elapsed += tickStep {
				h.e.Tick(tickStep)
			}
			if h.e.State() != StateSettling {
				t.Fatalf("resolved before the timeout, state=%s", h.e.State())
			}

			h.e.Tick(tickStep)
			if h.e.State() != StateResettingPins {
				t.Errorf("State = %s, expected resolve once the timeout passed", h.e.State())
			}
		})
	}
}

func TestMinimumSettleDelay(t *testing.T) {
	h := newHarness(t)

	h.e.OnBallThrown(core.Vec3{})
	h.ball.speed = 0
	h.pins.standing = 2
	h.pins.stationary = true
	h.e.Tick(tickStep) // Ball stops

	for i := 0; i < 9; i++ {
		h.e.Tick(tickStep)
	}
	if h.e.State() != StateSettling {
		t.Fatalf("resolved before min delay, state=%s", h.e.State())
	}

	h.e.Tick(tickStep)
	if h.e.State() != StateResettingPins {
		t.Errorf("State = %s, expected resolve at min delay", h.e.State())
	}
}

func TestBallEndConditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *fakeBall)
		ends  bool
	}{
		{"rolling", func(b *fakeBall) { b.dist = 300; b.elapsed = time.Second }, false},
		{"out of bounds early", func(b *fakeBall) { b.out = true }, true},
		{"destroyed", func(b *fakeBall) { b.valid = false }, true},
		{"max distance", func(b *fakeBall) { b.dist = 801 }, true},
		{"past pins too soon", func(b *fakeBall) { b.dist = 750; b.elapsed = time.Second }, false},
		{"past pins", func(b *fakeBall) { b.dist = 750; b.elapsed = 2 * time.Second }, true},
		{"stopped", func(b *fakeBall) { b.speed = 5 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.e.OnBallThrown(core.Vec3{})
			tc.setup(h.ball)
			h.e.Tick(tickStep)

			ended := h.e.State() == StateSettling
			if ended != tc.ends {
				t.Errorf("roll ended = %v, expected %v", ended, tc.ends)
			}
			if ended && h.ball.valid {
				t.Error("ending a roll must destroy the ball")
			}
		})
	}
}

func TestGutterDoesNotEndRoll(t *testing.T) {
	h := newHarness(t)

	h.e.OnBallThrown(core.Vec3{})
	h.e.OnBallEnterGutter(true)
	h.e.Tick(tickStep)

	if h.e.State() != StateBallInPlay {
		t.Errorf("State = %s, gutter must not end the roll", h.e.State())
	}
	if h.e.GutterBalls() != 1 {
		t.Errorf("GutterBalls = %d, expected 1", h.e.GutterBalls())
	}

	var got GutterBallEvent
	for _, ev := range h.events {
		if g, ok := ev.(GutterBallEvent); ok {
			got = g
		}
	}
	if !got.Left || got.Count != 1 {
		t.Errorf("GutterBallEvent = %+v, expected left with count 1", got)
	}
}

func TestMissingPlayerAgent(t *testing.T) {
	ball := &fakeBall{}
	pins := &fakePins{}
	e := New(config.DefaultBowlingConfig(), Options{Ball: ball, Pins: pins})

	if err := e.Start(); !errors.Is(err, ErrNoPlayerAgent) {
		t.Fatalf("Start() error = %v, expected ErrNoPlayerAgent", err)
	}
	if !e.BallPending() {
		t.Error("ball should be pending")
	}

	agent := &fakeAgent{ball: ball}
	if err := e.SetPlayerAgent(agent); err != nil {
		t.Fatalf("SetPlayerAgent() failed: %v", err)
	}
	if agent.issued != 1 || e.BallPending() {
		t.Errorf("pending ball not delivered: issued=%d pending=%v", agent.issued, e.BallPending())
	}
}

func TestRestartGame(t *testing.T) {
	h := newHarness(t)
	h.rollAll(t, 10, 7)
	h.e.OnBallEnterGutter(false)

	if err := h.e.RestartGame(); err != nil {
		t.Fatalf("RestartGame() failed: %v", err)
	}

	if h.e.State() != StateWaitingForThrow || h.e.Frame() != 1 || h.e.Roll() != 1 {
		t.Errorf("state=%s frame=%d roll=%d", h.e.State(), h.e.Frame(), h.e.Roll())
	}
	if h.e.Score() != 0 || h.e.StrikeStreak() != 0 || h.e.GutterBalls() != 0 {
		t.Errorf("score=%d strike=%d gutters=%d, expected zeros", h.e.Score(), h.e.StrikeStreak(), h.e.GutterBalls())
	}
	for i, f := range h.e.Frames() {
		if f.Pins != 0 || len(f.Rolls) != 0 || f.Mark != MarkNone {
			t.Errorf("frame %d not cleared: %+v", i+1, f)
		}
	}
	if h.pins.standing != 10 || h.e.PinsRemaining() != 10 {
		t.Errorf("rack not reset: standing=%d", h.pins.standing)
	}

	// Game plays normally afterwards
	h.roll(t, 10)
	if h.e.Frame() != 2 {
		t.Errorf("Frame = %d, expected 2", h.e.Frame())
	}
}

func TestRestartAfterGameOver(t *testing.T) {
	h := newHarness(t, func(c *config.BowlingConfig) { c.Game.TotalFrames = 1 })
	h.rollAll(t, 2, 3)
	if h.e.State() != StateGameOver {
		t.Fatalf("State = %s, expected game over", h.e.State())
	}

	if err := h.e.RestartGame(); err != nil {
		t.Fatal(err)
	}
	h.rollAll(t, 2, 3)
	if n := countEvents[GameOverEvent](h.events); n != 2 {
		t.Errorf("GameOverEvent count = %d, expected 2 across two games", n)
	}
}

func TestInvariantsOverRandomGames(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for game := 0; game < 25; game++ {
		h := newHarness(t)
		var violations []string
		h.e.Subscribe(func(ev Event) {
			if _, ok := ev.(ScoreChangedEvent); ok && h.e.PinsRemaining() != h.pins.standing {
				violations = append(violations, "pinsRemaining drifted from standing count")
			}
			if h.e.StrikeStreak() > 0 && h.e.SpareStreak() > 0 {
				violations = append(violations, "both streaks non-zero")
			}
		})

		for h.e.State() != StateGameOver {
			h.roll(t, rng.Intn(h.pins.standing+1))
		}

		if len(violations) > 0 {
			t.Fatalf("game %d: %v", game, violations)
		}
		raw := 0
		for _, f := range h.e.Frames() {
			raw += f.Pins
		}
		if raw != h.e.Score() {
			t.Errorf("game %d: additive score %d != pin sum %d", game, h.e.Score(), raw)
		}
	}
}

func TestGameAchievementsBehindFlags(t *testing.T) {
	dutchman := []int{10, 5, 5, 10, 5, 5, 10, 5, 5, 10, 5, 5, 10, 5, 5, 10}

	tests := []struct {
		name      string
		mutate    func(*config.BowlingConfig)
		wantClean int
		wantDutch int
	}{
		{"disabled", func(*config.BowlingConfig) {}, 0, 0},
		{"clean only", func(c *config.BowlingConfig) { c.Scoring.DetectCleanGame = true }, 1, 0},
		{"both", func(c *config.BowlingConfig) {
			c.Scoring.DetectCleanGame = true
			c.Scoring.DetectDutchman = true
		}, 1, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.mutate)
			h.rollAll(t, dutchman...)
			if h.e.State() != StateGameOver {
				t.Fatalf("State = %s, expected game over", h.e.State())
			}
			if n := countAchievements(h.events, AchievementCleanGame); n != tc.wantClean {
				t.Errorf("clean game fired %d times, expected %d", n, tc.wantClean)
			}
			if n := countAchievements(h.events, AchievementDutchman); n != tc.wantDutch {
				t.Errorf("dutchman fired %d times, expected %d", n, tc.wantDutch)
			}
		})
	}
}

func TestOfficialScoringThroughEngine(t *testing.T) {
	h := newHarness(t, func(c *config.BowlingConfig) { c.Scoring.Model = config.ScoringOfficial })

	for i := 0; i < 12; i++ {
		h.roll(t, 10)
	}
	if h.e.Score() != 300 {
		t.Errorf("official perfect game = %d, expected 300", h.e.Score())
	}
}

func TestSnapshotsPublished(t *testing.T) {
	h := newHarness(t)
	before := len(h.snaps)
	if before == 0 {
		t.Fatal("Start should publish a snapshot")
	}

	h.roll(t, 10)

	if len(h.snaps) <= before {
		t.Fatal("roll should publish snapshots")
	}
	for i := 1; i < len(h.snaps); i++ {
		if h.snaps[i].Seq <= h.snaps[i-1].Seq {
			t.Fatalf("snapshot seq not increasing: %d then %d", h.snaps[i-1].Seq, h.snaps[i].Seq)
		}
	}

	last := h.snaps[len(h.snaps)-1]
	if last.Frame != 2 || last.Score != 10 || last.StrikeStreak != 1 {
		t.Errorf("last snapshot = %+v", last)
	}

	// Snapshots share no memory with the engine
	last.Frames[0].Rolls[0] = 99
	if h.e.Frames()[0].Rolls[0] != 10 {
		t.Error("mutating a snapshot changed engine state")
	}
}

func TestIdleTicksDoNotPublish(t *testing.T) {
	h := newHarness(t)
	before := len(h.snaps)

	for i := 0; i < 20; i++ {
		h.e.Tick(tickStep)
	}

	if len(h.snaps) != before {
		t.Errorf("idle ticks published %d snapshots", len(h.snaps)-before)
	}
}
