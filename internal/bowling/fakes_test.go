package bowling

import (
	"testing"
	"time"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
)

const tickStep = 50 * time.Millisecond

type fakeBall struct {
	valid   bool
	out     bool
	dist    float64
	elapsed time.Duration
	speed   float64
	destroy int
}

func (b *fakeBall) Valid() bool                      { return b.valid }
func (b *fakeBall) OutOfBounds() bool                { return b.out }
func (b *fakeBall) DistanceFromStart() float64       { return b.dist }
func (b *fakeBall) ElapsedSinceThrow() time.Duration { return b.elapsed }
func (b *fakeBall) Speed() float64                   { return b.speed }
func (b *fakeBall) Destroy() {
	b.valid = false
	b.destroy++
}

type fakePins struct {
	standing   int
	stationary bool
	destroyed  bool
	clears     int
	resets     int
	respawns   int
}

func (p *fakePins) StandingCount() int  { return p.standing }
func (p *fakePins) AllStationary() bool { return p.stationary }
func (p *fakePins) AnyDestroyed() bool  { return p.destroyed }

func (p *fakePins) ClearKnockedDown() {
	p.clears++
	if p.standing < 10 {
		p.destroyed = true
	}
}

func (p *fakePins) FullReset() {
	p.resets++
	p.standing = 10
}

func (p *fakePins) RespawnAll() {
	p.respawns++
	p.standing = 10
	p.destroyed = false
}

type fakeAgent struct {
	ball   *fakeBall
	issued int
}

func (a *fakeAgent) IssueNewBall() error {
	a.issued++
	a.ball.valid = true
	a.ball.out = false
	a.ball.dist = 0
	a.ball.elapsed = 0
	a.ball.speed = 300
	return nil
}

type harness struct {
	e      *Engine
	ball   *fakeBall
	pins   *fakePins
	agent  *fakeAgent
	events []Event
	snaps  []Snapshot
}

func newHarness(t *testing.T, mutate ...func(*config.BowlingConfig)) *harness {
	t.Helper()

	cfg := config.DefaultBowlingConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	h := &harness{
		ball: &fakeBall{},
		pins: &fakePins{},
	}
	h.agent = &fakeAgent{ball: h.ball}
	h.e = New(cfg, Options{
		Ball:  h.ball,
		Pins:  h.pins,
		Agent: h.agent,
		Publisher: PublisherFunc(func(s Snapshot) {
			h.snaps = append(h.snaps, s)
		}),
	})
	h.e.Subscribe(func(ev Event) { h.events = append(h.events, ev) })

	if err := h.e.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return h
}

func (h *harness) tickUntil(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if cond() {
			return
		}
		h.e.Tick(tickStep)
	}
	t.Fatalf("condition not reached, state=%s frame=%d roll=%d", h.e.State(), h.e.Frame(), h.e.Roll())
}

// throw releases a ball that knocks the given number of pins and ticks until
// the roll is resolved.
func (h *harness) throw(t *testing.T, knock int) {
	t.Helper()
	if h.e.State() != StateWaitingForThrow {
		t.Fatalf("throw in state %s", h.e.State())
	}

	h.e.OnBallThrown(core.Vec3{})
	h.ball.speed = 0
	h.pins.standing -= knock
	h.pins.stationary = true
	h.tickUntil(t, func() bool {
		s := h.e.State()
		return s != StateBallInPlay && s != StateSettling
	})
}

// roll throws and then waits for the next ball or the end of the game.
func (h *harness) roll(t *testing.T, knock int) {
	t.Helper()
	h.throw(t, knock)
	h.tickUntil(t, func() bool {
		s := h.e.State()
		return s == StateWaitingForThrow || s == StateGameOver
	})
}

// rollAll rolls a sequence of knock counts.
func (h *harness) rollAll(t *testing.T, knocks ...int) {
	t.Helper()
	for _, k := range knocks {
		h.roll(t, k)
	}
}

func countEvents[T Event](events []Event) int {
	n := 0
	for _, ev := range events {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

func countAchievements(events []Event, kind AchievementKind) int {
	n := 0
	for _, ev := range events {
		if a, ok := ev.(AchievementEvent); ok && a.Kind == kind {
			n++
		}
	}
	return n
}
