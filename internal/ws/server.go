package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jbevemyr/rocktimer/internal/health"
	"github.com/jbevemyr/rocktimer/internal/timing"
)

// Server exposes the control/status HTTP API and the WebSocket stream.
// The system runs on a closed rink network, so there is no auth and any
// origin may connect.
type Server struct {
	coord       *timing.Coordinator
	broadcaster *Broadcaster
	webDir      string
}

func NewServer(coord *timing.Coordinator, broadcaster *Broadcaster, webDir string) *Server {
	return &Server{
		coord:       coord,
		broadcaster: broadcaster,
		webDir:      webDir,
	}
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/arm", s.handleArm)
	mux.HandleFunc("/api/disarm", s.handleDisarm)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/current", s.handleCurrent)
	mux.HandleFunc("/api/times", s.handleTimes)
	mux.HandleFunc("/api/times/", s.handleTimeByID)
	mux.HandleFunc("/api/clear", s.handleClear)
	mux.HandleFunc("/api/health", s.handleHealth)

	if s.webDir != "" {
		log.Printf("Serving web UI from %s", s.webDir)
		mux.Handle("/", http.FileServer(http.Dir(s.webDir)))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		// Closed local network, single shared control surface.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn, s.coord.Status())

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handleCommand(data)
		}
	}()
}

// handleCommand applies an inbound observer command. Unknown or malformed
// messages are dropped; breaking the stream over them would punish a UI bug
// with a reconnect loop.
func (s *Server) handleCommand(data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Printf("ws: ignoring malformed command: %v", err)
		return
	}

	switch cmd.Type {
	case MsgArm:
		s.coord.Arm(context.Background())
	case MsgDisarm:
		s.coord.Disarm(context.Background())
	default:
		log.Printf("ws: ignoring unknown command type %q", cmd.Type)
	}
}

func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.coord.Arm(r.Context()))
}

func (s *Server) handleDisarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.coord.Disarm(r.Context()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.coord.Status())
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.coord.Status().Session)
}

// handleTimes serves recorded sessions, most recent first, and clears the
// whole history on DELETE.
func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 50
		if q := r.URL.Query().Get("limit"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 {
				limit = n
			}
		}
		records := s.coord.History().Recent(limit)
		if records == nil {
			records = []timing.Record{}
		}
		writeJSON(w, records)
	case http.MethodDelete:
		s.coord.History().Clear()
		writeJSON(w, map[string]bool{"success": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTimeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/times/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]bool{"success": s.coord.History().Delete(id)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.coord.History().Clear()
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, health.Collect())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
