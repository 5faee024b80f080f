package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-bowling/internal/core"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
	"github.com/vovakirdan/tui-bowling/internal/multiplayer"
	"github.com/vovakirdan/tui-bowling/internal/platform/tui"
	"github.com/vovakirdan/tui-bowling/internal/platform/web"
	"github.com/vovakirdan/tui-bowling/internal/storage"
)

var (
	flagSSHAddr     string
	flagHTTPAddr    string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host bowling lanes over SSH",
	Long: `Start an SSH server where every connection bowls on its own lane,
plus an HTTP server where lanes can be listed and watched live.

Each lane gets a six-character join code. Finished games are stored in
the shared database, so all bowlers share the same leaderboard.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.bowling/host_key

Examples:
  bowling serve                       # SSH on :23234, HTTP on :8080
  bowling serve --ssh :2222           # Listen on port 2222
  bowling serve --http ""             # SSH only
  bowling serve --idle-timeout 5      # Close lanes idle for 5 minutes

Users can connect with:
  ssh localhost -p 23234              # Bowl
  ssh localhost -p 23234 watch ABC123 # Spectate a lane
  ssh localhost -p 23234 lanes        # List lanes
  curl localhost:8080/lanes           # List lanes over HTTP`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", ":8080", "HTTP spectator address (empty to disable)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 10, "Minutes without input before a lane is closed")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := newLogger(os.Stderr, "bowling-serve")
	bowlgame.SetLogger(logger.WithPrefix("engine"))

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("results will not be stored", "err", err)
		store = nil
	}

	bowlCfg := bowlgame.LoadConfig()
	hubCfg := multiplayer.DefaultHubConfig()
	hubCfg.TickRate = flagFPS
	hubCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute

	hub := multiplayer.NewHub(hubCfg, func(core.RuntimeConfig) (multiplayer.HostedGame, error) {
		return bowlgame.NewWithConfig(bowlCfg), nil
	}, logger.WithPrefix("hub"))
	if store != nil {
		hub.SetResultSaver(store)
	}
	hub.Start()

	sshCfg := tui.DefaultSSHServerConfig()
	sshCfg.Address = flagSSHAddr
	sshCfg.HostKeyPath = flagHostKey
	sshServer, err := tui.NewSSHServer(sshCfg, hub, bowlCfg.Lane, logger.WithPrefix("ssh"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	var webServer *web.Server
	if flagHTTPAddr != "" {
		webServer = web.NewServer(flagHTTPAddr, hub, logger.WithPrefix("web"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		if err := sshServer.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()
	if webServer != nil {
		go func() {
			if err := webServer.ListenAndServe(); err != nil {
				errCh <- err
			}
		}()
	}

	logger.Info("serving lanes", "ssh", flagSSHAddr, "http", flagHTTPAddr)
	fmt.Println("Press Ctrl+C to stop")

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server failed", "err", err)
		exitCode = 1
	}

	logger.Info("shutting down")
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sshServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ssh shutdown", "err", err)
	}
	if webServer != nil {
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}
	if store != nil {
		store.Close()
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
