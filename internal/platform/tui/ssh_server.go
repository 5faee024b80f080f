package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/multiplayer"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.bowling/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer serves hosted lanes over SSH. A plain connection opens a new
// lane; "watch <code>" spectates one; "lanes" lists open lanes.
type SSHServer struct {
	config  SSHServerConfig
	server  *ssh.Server
	hub     *multiplayer.Hub
	laneCfg config.LaneConfig
	logger  *log.Logger
}

// NewSSHServer creates a new SSH server on top of the given hub.
func NewSSHServer(cfg SSHServerConfig, hub *multiplayer.Hub, laneCfg config.LaneConfig, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "bowling-ssh",
		})
	}

	srv := &SSHServer{
		config:  cfg,
		hub:     hub,
		laneCfg: laneCfg,
		logger:  logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("tui: cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".bowling", "host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	// Middlewares run last to first.
	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.commandMiddleware,
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// commandMiddleware answers non-interactive commands without starting a TUI.
func (s *SSHServer) commandMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		cmd := sess.Command()
		if len(cmd) == 0 || cmd[0] != "lanes" {
			next(sess)
			return
		}

		lanes := s.hub.List()
		if len(lanes) == 0 {
			wish.Println(sess, "No open lanes.")
			return
		}
		for _, l := range lanes {
			wish.Println(sess, fmt.Sprintf("%s  %-12s frame %2d  score %3d  %s  %d watching",
				l.Code, l.Player, l.Frame, l.Score, l.State.Label(), l.Spectators))
		}
	}
}

// teaHandler creates a Bubble Tea program for each interactive SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		wish.Fatalln(sess, "bowling needs a terminal: connect with ssh -t")
		return nil, nil
	}

	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), 256)
	go func() {
		<-sess.Context().Done()
		session.Close()
	}()

	var (
		model LaneModel
		err   error
	)
	switch cmd := sess.Command(); {
	case len(cmd) == 2 && cmd[0] == "watch":
		model, err = NewSpectatorModel(s.hub, session, cmd[1], s.laneCfg, pty.Window.Width, pty.Window.Height)
	case len(cmd) == 0:
		model, err = NewBowlerModel(s.hub, session, sess.User(), s.laneCfg, pty.Window.Width, pty.Window.Height)
	default:
		err = fmt.Errorf("unknown command %q, try: watch <code> | lanes", strings.Join(cmd, " "))
	}
	if err != nil {
		session.Close()
		if errors.Is(err, multiplayer.ErrLaneNotFound) {
			err = fmt.Errorf("no lane with code %q", sess.Command()[1])
		}
		wish.Fatalln(sess, err.Error())
		return nil, nil
	}

	s.logger.Info("lane session", "user", sess.User(), "lane", model.Code(), "role", model.role)
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"command", sess.Command(),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until it stops.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("tui: ssh server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
