package service

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"marcel.works/nookstube-go/app/model"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WsService is the browser-facing gateway: one websocket per watcher,
// session documents pushed down, commands coming back up through the same
// path the broker uses.
type WsService struct {
	DbService SessionStore
	Auth      *AuthService
}

func (s *WsService) Start() error {
	addr := os.Getenv("NOOKSTUBE_WS_ADDR")
	if addr == "" {
		addr = ":8085"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWatch)
	zap.S().Infow("websocket gateway listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *WsService) handleWatch(w http.ResponseWriter, r *http.Request) {
	sessionId := r.URL.Query().Get("sessionId")
	if sessionId == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(typ string, data interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		broadcast := model.Broadcast{
			Type:      typ,
			Data:      data,
			Timestamp: time.Now(),
		}
		if err := conn.WriteJSON(broadcast); err != nil {
			zap.S().Debugw("could not write to watcher", "sessionId", sessionId, "error", err)
		}
	}

	cancel, err := s.DbService.Subscribe(sessionId, func(session model.Session) {
		send("SESSION_STATE", session)
	})
	if err != nil {
		zap.S().Warnw("could not subscribe watcher", "sessionId", sessionId, "error", err)
		return
	}
	defer cancel()

	for {
		var command model.Command
		if err := conn.ReadJSON(&command); err != nil {
			return
		}
		if command.SessionId == "" {
			command.SessionId = sessionId
		}
		if _, err := applyCommand(s.DbService, s.Auth, command); err != nil {
			zap.S().Warnw("could not apply command", "cmd", command.Cmd, "error", err)
			send("COMMAND_REJECTED", err.Error())
		}
	}
}
