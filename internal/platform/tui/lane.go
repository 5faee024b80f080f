package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
	"github.com/vovakirdan/tui-bowling/internal/multiplayer"
)

// LaneModel shows a hosted lane. A bowler drives it; a spectator only watches.
type LaneModel struct {
	hub       *multiplayer.Hub
	session   *multiplayer.ChannelSession
	lane      *multiplayer.Lane
	role      multiplayer.Role
	laneCfg   config.LaneConfig
	screen    *core.Screen
	keyMapper *KeyMapper

	code     string
	view     bowlgame.View
	hasView  bool
	status   string
	closed   bool
	quitting bool
}

// NewBowlerModel opens a new lane on the hub driven by this session.
func NewBowlerModel(hub *multiplayer.Hub, session *multiplayer.ChannelSession, player string,
	laneCfg config.LaneConfig, width, height int) (LaneModel, error) {
	lane, err := hub.Open(session, player)
	if err != nil {
		return LaneModel{}, err
	}
	return newLaneModel(hub, session, lane, multiplayer.RoleBowler, laneCfg, width, height), nil
}

// NewSpectatorModel attaches this session to an existing lane.
func NewSpectatorModel(hub *multiplayer.Hub, session *multiplayer.ChannelSession, code string,
	laneCfg config.LaneConfig, width, height int) (LaneModel, error) {
	lane, err := hub.Watch(code, session)
	if err != nil {
		return LaneModel{}, err
	}
	return newLaneModel(hub, session, lane, multiplayer.RoleSpectator, laneCfg, width, height), nil
}

func newLaneModel(hub *multiplayer.Hub, session *multiplayer.ChannelSession, lane *multiplayer.Lane,
	role multiplayer.Role, laneCfg config.LaneConfig, width, height int) LaneModel {
	return LaneModel{
		hub:       hub,
		session:   session,
		lane:      lane,
		role:      role,
		laneCfg:   laneCfg,
		screen:    core.NewScreen(width, height),
		keyMapper: NewKeyMapper(),
		code:      lane.Code(),
	}
}

// Init starts listening for lane events.
func (m LaneModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that waits for the next lane event.
func (m LaneModel) waitForEvent() tea.Cmd {
	events := m.session.Events()
	done := m.session.Done()
	return func() tea.Msg {
		select {
		case evt := <-events:
			return evt
		case <-done:
			return nil
		}
	}
}

// Update handles messages.
func (m LaneModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case multiplayer.LaneOpenedEvent:
		m.code = msg.Code
		return m, m.waitForEvent()

	case multiplayer.SnapshotEvent:
		m.view = msg.View
		m.hasView = true
		return m, m.waitForEvent()

	case multiplayer.GameFinishedEvent:
		m.status = fmt.Sprintf("Final score %d", msg.Result.Total)
		return m, m.waitForEvent()

	case multiplayer.LaneErrorEvent:
		m.status = msg.Message
		return m, m.waitForEvent()

	case multiplayer.LaneClosedEvent:
		m.closed = true
		m.status = msg.Reason.String()
		return m, nil
	}
	return m, nil
}

// handleKey forwards bowler input to the lane. Spectators can only leave.
func (m LaneModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := core.NewInputFrame()
	if m.keyMapper.MapKeyToFrame(msg, &in) || in.Has(core.ActionBack) {
		m.leave()
		m.quitting = true
		return m, tea.Quit
	}

	if m.role == multiplayer.RoleBowler && !m.closed {
		if err := m.lane.Input(in); err != nil {
			m.status = err.Error()
		}
	}
	return m, nil
}

// leave detaches the session from its lane.
func (m LaneModel) leave() {
	if m.role == multiplayer.RoleSpectator {
		m.hub.Unwatch(m.session.ID())
	}
	m.session.Close()
}

// View renders the lane as last broadcast.
func (m LaneModel) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	if m.hasView {
		bowlgame.RenderView(m.screen, m.view, m.laneCfg)
	}

	label := fmt.Sprintf(" Lane %s  %s ", m.code, m.role)
	if m.role == multiplayer.RoleSpectator {
		label += "(q to leave) "
	}
	if m.status != "" {
		label += "| " + m.status + " "
	}
	y := m.screen.Height() - 1
	m.screen.DrawTextColor(0, y, label, core.ColorCyan)
	if m.closed {
		m.screen.DrawTextColor(len(label), y, " press q ", core.ColorBrightRed)
	}

	return RenderScreen(m.screen)
}

// Code returns the lane's join code.
func (m LaneModel) Code() string {
	return m.code
}
