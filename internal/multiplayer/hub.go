package multiplayer

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-bowling/internal/core"
)

// HubConfig holds configuration for the hub.
type HubConfig struct {
	IdleTimeout   time.Duration // How long a lane may go without bowler input
	TickRate      int           // Simulation tick rate (Hz)
	CleanupPeriod time.Duration // How often to look for idle lanes
	ScreenW       int
	ScreenH       int
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		IdleTimeout:   10 * time.Minute,
		TickRate:      60,
		CleanupPeriod: 30 * time.Second,
		ScreenW:       80,
		ScreenH:       24,
	}
}

// GameFactory creates a fresh game for a new lane.
type GameFactory func(cfg core.RuntimeConfig) (HostedGame, error)

// Hub hosts lanes under short join codes.
type Hub struct {
	config      HubConfig
	gameFactory GameFactory
	sessions    *SessionRegistry
	resultSaver ResultSaver // Optional, can be nil
	logger      *log.Logger

	mu        sync.RWMutex
	lanes     map[string]*Lane    // code -> lane
	watching  map[SessionID]string // spectator -> lane code
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new hub.
func NewHub(cfg HubConfig, factory GameFactory, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		config:      cfg,
		gameFactory: factory,
		sessions:    NewSessionRegistry(),
		logger:      logger,
		lanes:       make(map[string]*Lane),
		watching:    make(map[SessionID]string),
		done:        make(chan struct{}),
	}
}

// SetResultSaver sets the optional result saver.
func (h *Hub) SetResultSaver(saver ResultSaver) {
	h.resultSaver = saver
}

// Start begins background expiry of idle lanes.
func (h *Hub) Start() {
	go h.cleanupLoop()
}

// Stop closes every lane and stops background work.
func (h *Hub) Stop() {
	h.closeOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	lanes := make([]*Lane, 0, len(h.lanes))
	for _, l := range h.lanes {
		lanes = append(lanes, l)
	}
	h.mu.Unlock()

	for _, l := range lanes {
		l.Stop(CloseReasonShutdown)
	}
}

// Open creates a lane driven by bowler and starts its simulation.
func (h *Hub) Open(bowler SessionHandle, player string) (*Lane, error) {
	select {
	case <-h.done:
		return nil, ErrLaneClosed
	default:
	}

	cfg := core.RuntimeConfig{
		ScreenW:  h.config.ScreenW,
		ScreenH:  h.config.ScreenH,
		TickRate: h.config.TickRate,
		Seed:     time.Now().UnixNano(),
	}
	game, err := h.gameFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("multiplayer: create game: %w", err)
	}
	game.Reset(cfg)

	h.mu.Lock()
	code := h.generateUniqueCode()
	lane := NewLane(code, player, game, bowler, h.config.TickRate, h.logger)
	h.lanes[code] = lane
	h.mu.Unlock()

	h.sessions.Register(bowler)
	bowler.Send(LaneOpenedEvent{Code: code, GameID: lane.GameID()})
	h.logger.Info("lane opened", "lane", code, "player", player)

	go func() {
		lane.Run(h.handleFinished)
		h.removeLane(lane)
		h.sessions.Unregister(bowler.ID())
	}()

	return lane, nil
}

// Watch attaches a spectator to the lane with the given code.
func (h *Hub) Watch(code string, s SessionHandle) (*Lane, error) {
	h.mu.Lock()
	lane, ok := h.lanes[normalizeCode(code)]
	if ok {
		h.watching[s.ID()] = lane.Code()
	}
	h.mu.Unlock()

	if !ok {
		return nil, ErrLaneNotFound
	}
	if err := lane.Watch(s); err != nil {
		h.mu.Lock()
		delete(h.watching, s.ID())
		h.mu.Unlock()
		return nil, err
	}
	h.sessions.Register(s)
	return lane, nil
}

// Unwatch detaches a spectator from whatever lane it is watching.
func (h *Hub) Unwatch(id SessionID) {
	h.mu.Lock()
	code, ok := h.watching[id]
	delete(h.watching, id)
	lane := h.lanes[code]
	h.mu.Unlock()

	h.sessions.Unregister(id)
	if ok && lane != nil {
		lane.Unwatch(id)
	}
}

// Close stops the lane with the given code.
func (h *Hub) Close(code string) error {
	lane, ok := h.Lane(code)
	if !ok {
		return ErrLaneNotFound
	}
	lane.Stop(CloseReasonShutdown)
	return nil
}

// Lane returns a lane by code.
func (h *Hub) Lane(code string) (*Lane, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	l, ok := h.lanes[normalizeCode(code)]
	return l, ok
}

// List returns a summary of every open lane, sorted by code.
func (h *Hub) List() []LaneInfo {
	h.mu.RLock()
	lanes := make([]*Lane, 0, len(h.lanes))
	for _, l := range h.lanes {
		lanes = append(lanes, l)
	}
	h.mu.RUnlock()

	infos := make([]LaneInfo, 0, len(lanes))
	for _, l := range lanes {
		infos = append(infos, l.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Code < infos[j].Code
	})
	return infos
}

// LaneCount returns the number of open lanes.
func (h *Hub) LaneCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lanes)
}

// SessionCount returns the number of connected bowlers and spectators.
func (h *Hub) SessionCount() int {
	return h.sessions.Count()
}

func (h *Hub) handleFinished(data ResultData) {
	if h.resultSaver == nil {
		return
	}
	// Best effort save, don't block the lane
	go func() {
		if err := h.resultSaver.SaveLaneResult(data); err != nil {
			h.logger.Error("cannot save game", "lane", data.LaneCode, "game", data.GameID, "err", err)
		}
	}()
}

func (h *Hub) removeLane(lane *Lane) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lanes[lane.Code()] == lane {
		delete(h.lanes, lane.Code())
	}
	for id, code := range h.watching {
		if code == lane.Code() {
			delete(h.watching, id)
			h.sessions.Unregister(id)
		}
	}
}

func (h *Hub) cleanupLoop() {
	period := h.config.CleanupPeriod
	if period <= 0 {
		period = 30 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.expireIdleLanes(time.Now())
		case <-h.done:
			return
		}
	}
}

// expireIdleLanes stops lanes whose bowler has been quiet past the timeout.
func (h *Hub) expireIdleLanes(now time.Time) {
	if h.config.IdleTimeout <= 0 {
		return
	}

	h.mu.RLock()
	var idle []*Lane
	for _, l := range h.lanes {
		if now.Sub(l.IdleSince()) > h.config.IdleTimeout {
			idle = append(idle, l)
		}
	}
	h.mu.RUnlock()

	for _, l := range idle {
		l.Stop(CloseReasonExpired)
	}
}

func (h *Hub) generateUniqueCode() string {
	for {
		code := generateJoinCode()
		if _, exists := h.lanes[code]; !exists {
			return code
		}
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateJoinCode creates a 6-character uppercase alphanumeric code.
func generateJoinCode() string {
	b := make([]byte, 4) // 4 bytes = 32 bits, base32 encodes to 8 chars, we take 6
	_, err := rand.Read(b)
	if err != nil {
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	return base32.StdEncoding.EncodeToString(b)[:6]
}
