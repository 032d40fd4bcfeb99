package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"leave_portal/internal/app/service"
	"leave_portal/internal/common"
	"leave_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SessionHandler lets open tabs follow login/logout done in another tab.
type SessionHandler struct {
	authService *service.AuthService
	store       repository.SessionStore
}

func NewSessionHandler(authService *service.AuthService, store repository.SessionStore) *SessionHandler {
	return &SessionHandler{authService: authService, store: store}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/session", h.stream)
}

// current is mounted under /api/v1.
func (h *SessionHandler) current(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), scopedSession(r, h.store))
	if err != nil {
		log.Printf("ERROR: Failed to load session: %v", err)
		common.RespondWithError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if user == nil {
		common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "user": user})
}

func (h *SessionHandler) stream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before upgrading so nothing published after the handshake is missed.
	events, err := scopedSession(r, h.store).Subscribe(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to subscribe to session events: %v", err)
		common.RespondWithError(w, http.StatusServiceUnavailable, "Session events unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	// The client never sends anything; reading only notices when it goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
