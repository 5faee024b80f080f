// Package web streams hosted lanes to browsers and other HTTP clients.
// Spectators list lanes over JSON and follow one over a websocket.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	bowlgame "github.com/vovakirdan/tui-bowling/internal/games/bowling"
	"github.com/vovakirdan/tui-bowling/internal/multiplayer"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is one websocket frame sent to a spectator.
type Message struct {
	Type   string          `json:"type"` // snapshot, finished or closed
	Code   string          `json:"code"`
	View   *bowlgame.View  `json:"view,omitempty"`
	Result *bowling.Result `json:"result,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// LaneDetail is the response of GET /lanes/{code}.
type LaneDetail struct {
	Lane multiplayer.LaneInfo `json:"lane"`
	View bowlgame.View        `json:"view"`
}

// Server serves the spectator API for a hub.
type Server struct {
	hub      *multiplayer.Hub
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   *log.Logger
	http     *http.Server
}

// NewServer creates a spectator server listening on addr.
func NewServer(addr string, hub *multiplayer.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		hub:    hub,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}

	s.router.HandleFunc("/lanes", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/lanes/{code}", s.handleLane).Methods(http.MethodGet)
	s.router.HandleFunc("/lanes/{code}/ws", s.handleWatch).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "lanes": hub.LaneCount()})
	}).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting HTTP server", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.List())
}

func (s *Server) handleLane(w http.ResponseWriter, r *http.Request) {
	lane, ok := s.hub.Lane(mux.Vars(r)["code"])
	if !ok {
		writeError(w, http.StatusNotFound, multiplayer.ErrLaneNotFound)
		return
	}
	writeJSON(w, http.StatusOK, LaneDetail{Lane: lane.Info(), View: lane.View()})
}

// handleWatch attaches a websocket spectator and streams lane events to it.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), 64)

	lane, err := s.hub.Watch(code, session)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, multiplayer.ErrLaneClosed) {
			status = http.StatusGone
		}
		writeError(w, status, err)
		return
	}
	defer s.hub.Unwatch(session.ID())
	defer session.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "lane", lane.Code(), "err", err)
		return
	}
	defer conn.Close()

	s.logger.Info("websocket spectator joined", "lane", lane.Code(), "remote", r.RemoteAddr)
	go readPump(conn, session)
	s.writePump(conn, session)
	s.logger.Info("websocket spectator left", "lane", lane.Code(), "remote", r.RemoteAddr)
}

// readPump discards client frames and closes the session when the peer goes away.
func readPump(conn *websocket.Conn, session *multiplayer.ChannelSession) {
	defer session.Close()
	conn.SetReadLimit(512)
	//nolint:errcheck // Deadline errors surface on the next read
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards lane events until the lane closes or the peer leaves.
func (s *Server) writePump(conn *websocket.Conn, session *multiplayer.ChannelSession) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case evt := <-session.Events():
			msg, last := toMessage(evt)
			if msg == nil {
				continue
			}
			//nolint:errcheck // A failed deadline shows up as a write error
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if last {
				//nolint:errcheck // Best-effort close frame
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, msg.Reason))
				return
			}

		case <-ping.C:
			//nolint:errcheck // A failed deadline shows up as a write error
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-session.Done():
			return
		}
	}
}

// toMessage converts a lane event to a websocket message.
// last reports whether the stream ends after it.
func toMessage(evt multiplayer.SessionEvent) (msg *Message, last bool) {
	switch e := evt.(type) {
	case multiplayer.SnapshotEvent:
		view := e.View
		return &Message{Type: "snapshot", Code: e.Code, View: &view}, false
	case multiplayer.GameFinishedEvent:
		result := e.Result
		return &Message{Type: "finished", Code: e.Code, Result: &result}, false
	case multiplayer.LaneClosedEvent:
		return &Message{Type: "closed", Code: e.Code, Reason: e.Reason.String()}, true
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Client went away
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
