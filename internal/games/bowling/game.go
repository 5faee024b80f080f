package bowling

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	engine "github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/bowling/lane"
	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
	"github.com/vovakirdan/tui-bowling/internal/registry"
)

// ID is the registry identifier of the game.
const ID = "bowling"

// bannerDuration is how long an announcement stays on screen.
const bannerDuration = 2 * time.Second

// configPath stores the custom config path set via CLI
var configPath string

// difficultyPreset stores the difficulty preset set via CLI
var difficultyPreset config.DifficultyPreset

// logger receives engine logs; discarded unless set via CLI
var logger = log.New(io.Discard)

// SetConfigPath sets the custom config path for loading.
func SetConfigPath(path string) {
	configPath = path
}

// SetDifficultyPreset sets the difficulty preset.
func SetDifficultyPreset(preset string) {
	switch preset {
	case "easy":
		difficultyPreset = config.DifficultyEasy
	case "normal":
		difficultyPreset = config.DifficultyNormal
	case "hard":
		difficultyPreset = config.DifficultyHard
	case "fixed":
		difficultyPreset = config.DifficultyFixed
	default:
		difficultyPreset = ""
	}
}

// SetLogger sets the logger handed to new engines.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}

// LoadConfig loads the bowling config honoring the CLI path and preset.
func LoadConfig() config.BowlingConfig {
	cfg, err := config.LoadBowling(configPath)
	if err != nil {
		logger.Warn("using default config", "err", err)
		cfg = config.DefaultBowlingConfig()
	}
	config.ApplyPreset(&cfg, difficultyPreset)
	return cfg
}

func init() {
	registry.Register(ID, func() registry.Game {
		return New()
	})
}

// View is everything a spectator needs to draw the lane.
type View struct {
	Tick  uint64          `json:"tick"`
	Game  engine.Snapshot `json:"game"`
	Lane  lane.Snapshot   `json:"lane"`
	Flash string          `json:"flash,omitempty"`
}

// Game is a single-player bowling game: a scoring engine driven by a
// simulated lane.
type Game struct {
	runtime    core.RuntimeConfig
	cfg        config.BowlingConfig
	difficulty *config.DifficultyManager

	engine *engine.Engine
	lane   *lane.Lane

	tick        uint64
	paused      bool
	tooSmall    bool
	banner      string
	bannerTicks int
	handlers    []engine.EventHandler
	publisher   engine.Publisher
}

// New creates a bowling game. Call Reset before use.
func New() *Game {
	return &Game{}
}

// NewWithConfig creates a game that skips config file loading.
func NewWithConfig(cfg config.BowlingConfig) *Game {
	return &Game{cfg: cfg}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string { return ID }

// Title returns the display name for this game.
func (g *Game) Title() string { return "Bowling" }

// Subscribe forwards engine events to h. It survives Reset.
func (g *Game) Subscribe(h engine.EventHandler) {
	g.handlers = append(g.handlers, h)
	if g.engine != nil {
		g.engine.Subscribe(h)
	}
}

// SetPublisher forwards engine snapshots to p. It survives Reset.
func (g *Game) SetPublisher(p engine.Publisher) {
	g.publisher = p
	if g.engine != nil {
		g.engine.SetPublisher(p)
	}
}

// Reset builds a fresh lane and engine and starts a new game.
func (g *Game) Reset(runtime core.RuntimeConfig) {
	g.runtime = runtime
	if g.cfg.Game.TotalFrames == 0 {
		g.cfg = LoadConfig()
	}
	g.difficulty = config.NewDifficultyManager(g.cfg.Difficulty)
	g.tooSmall = runtime.ScreenW < minScreenW || runtime.ScreenH < minScreenH

	g.lane = lane.New(g.cfg, runtime.Seed)
	g.engine = engine.New(g.cfg, engine.Options{
		Ball:      g.lane.Ball,
		Pins:      g.lane.Pins,
		Agent:     g.lane.Bowler,
		Publisher: g.publisher,
		Logger:    logger,
	})
	g.lane.OnThrow(g.engine.OnBallThrown)
	g.lane.OnGutter(g.engine.OnBallEnterGutter)
	g.engine.Subscribe(g.announce)
	for _, h := range g.handlers {
		g.engine.Subscribe(h)
	}

	g.tick = 0
	g.paused = false
	g.banner = ""
	g.bannerTicks = 0

	if err := g.engine.Start(); err != nil {
		logger.Warn("first ball not issued", "err", err)
	}
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionRestart) {
		g.restart()
		return core.StepResult{State: g.State()}
	}

	over := g.engine.State() == engine.StateGameOver
	if in.Has(core.ActionPause) && !over {
		g.paused = !g.paused
	}
	if g.paused || over {
		return core.StepResult{State: g.State()}
	}

	g.handleInput(in)

	dt := time.Duration(float64(time.Second) * g.runtime.TickSeconds())
	g.lane.Step(dt)
	g.engine.Tick(dt)
	g.tick++
	if g.bannerTicks > 0 {
		g.bannerTicks--
	}

	return core.StepResult{State: g.State()}
}

// Resize adapts to a new screen size without restarting the game.
func (g *Game) Resize(w, h int) {
	g.runtime.ScreenW, g.runtime.ScreenH = w, h
	g.tooSmall = w < minScreenW || h < minScreenH
}

// LaneConfig returns the lane geometry used for rendering views.
func (g *Game) LaneConfig() config.LaneConfig { return g.cfg.Lane }

// handleInput aims, charges and throws.
func (g *Game) handleInput(in core.InputFrame) {
	bowler := g.lane.Bowler
	if !g.lane.Ball.Held() {
		return
	}

	step := g.cfg.Lane.AimStep
	if in.Has(core.ActionLeft) {
		bowler.Aim(-step)
	}
	if in.Has(core.ActionRight) {
		bowler.Aim(step)
	}

	if in.Has(core.ActionThrow) || in.Has(core.ActionConfirm) {
		if !bowler.Charging() {
			bowler.BeginCharge()
			return
		}
		frame := g.engine.Frame()
		bowler.SetRelease(g.difficulty.AimWobble(frame), g.difficulty.SpeedJitter(frame))
		bowler.Release()
	}
}

func (g *Game) restart() {
	g.paused = false
	g.banner = ""
	g.bannerTicks = 0
	if err := g.engine.RestartGame(); err != nil {
		logger.Warn("restart without ball", "err", err)
	}
}

// announce turns engine events into on-screen banners.
func (g *Game) announce(ev engine.Event) {
	var text string
	switch e := ev.(type) {
	case engine.StrikeEvent:
		text = "STRIKE!"
	case engine.SpareEvent:
		text = "SPARE!"
	case engine.GutterBallEvent:
		text = "Gutter ball"
	case engine.AchievementEvent:
		text = e.Kind.Title() + "!"
	case engine.GameOverEvent:
		text = "Game over"
	default:
		return
	}
	g.banner = text
	g.bannerTicks = int(bannerDuration.Seconds() * float64(g.tickRate()))
}

func (g *Game) tickRate() int {
	if g.runtime.TickRate <= 0 {
		return 60
	}
	return g.runtime.TickRate
}

// State returns the platform-facing game state.
func (g *Game) State() core.GameState {
	if g.engine == nil {
		return core.GameState{}
	}
	return core.GameState{
		Score:    g.engine.Score(),
		GameOver: g.engine.State() == engine.StateGameOver,
		Paused:   g.paused,
	}
}

// Engine exposes the scoring engine for read-only inspection.
func (g *Game) Engine() *engine.Engine { return g.engine }

// Lane exposes the lane simulation for read-only inspection.
func (g *Game) Lane() *lane.Lane { return g.lane }

// Result returns the game record for persistence.
func (g *Game) Result() engine.Result { return g.engine.Result() }

// IsGameOver reports whether the game has finished.
func (g *Game) IsGameOver() bool {
	return g.engine != nil && g.engine.State() == engine.StateGameOver
}

// Snapshot returns the full view of the game.
func (g *Game) Snapshot() View {
	v := View{
		Tick: g.tick,
		Game: g.engine.Snapshot(),
		Lane: g.lane.Snapshot(),
	}
	if g.bannerTicks > 0 {
		v.Flash = g.banner
	}
	return v
}
