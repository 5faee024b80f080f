// Package registry keeps the playable games known to the platform.
// Games register a factory from init(); the CLI and TUI create them by ID
// and probe the optional capabilities below instead of importing game packages.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/core"
)

// Game is the interface every playable game implements.
// Games hold pure logic with no Bubble Tea dependency.
// The platform handles input mapping, timing, and rendering.
type Game interface {
	// ID returns a unique identifier used for CLI commands and storage (e.g., "bowling").
	ID() string

	// Title returns a human-readable name for display (e.g., "Bowling").
	Title() string

	// Reset starts a fresh game sized to the runtime config.
	Reset(cfg core.RuntimeConfig)

	// Step advances the simulation by one fixed tick.
	// Input is abstracted to platform-level actions (Throw, Pause, etc.).
	Step(in core.InputFrame) core.StepResult

	// Render draws the current game into a pre-cleared screen buffer.
	Render(dst *core.Screen)

	// State returns score, game over and pause flags.
	State() core.GameState
}

// Resizable is implemented by games that follow the terminal size
// without restarting.
type Resizable interface {
	Resize(w, h int)
}

// ResultReporter is implemented by games whose finished games can be stored.
type ResultReporter interface {
	Result() bowling.Result
}

// GameInfo describes a registered game.
type GameInfo struct {
	ID        string
	Title     string
	Resizable bool // Follows terminal resizes in place
	Reports   bool // Finished games can be saved
}

// Factory creates a new instance of a game.
type Factory func() Game

type entry struct {
	factory Factory
	info    GameInfo
}

var (
	mu      sync.RWMutex
	entries = make(map[string]entry)
)

// Register adds a game factory. One instance is created to read its title
// and capabilities. Panics if the ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[id]; exists {
		panic(fmt.Sprintf("registry: game %q already registered", id))
	}

	g := f()
	_, resizable := g.(Resizable)
	_, reports := g.(ResultReporter)
	entries[id] = entry{
		factory: f,
		info: GameInfo{
			ID:        id,
			Title:     g.Title(),
			Resizable: resizable,
			Reports:   reports,
		},
	}
}

// List returns all registered games sorted by ID.
func List() []GameInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]GameInfo, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Lookup returns the info of a registered game.
func Lookup(id string) (GameInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	return e.info, ok
}

// Create instantiates a new game by its ID.
func Create(id string) (Game, error) {
	mu.RLock()
	e, ok := entries[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown game %q", id)
	}
	return e.factory(), nil
}

// Exists reports whether a game with the given ID is registered.
func Exists(id string) bool {
	_, ok := Lookup(id)
	return ok
}
