package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/oiyahen/scrim-scheduler/middleware"
	"github.com/oiyahen/scrim-scheduler/realtime"
	"github.com/oiyahen/scrim-scheduler/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true // Для разработки разрешаем все
	},
}

type WebSocketHandler struct {
	hub         *realtime.Hub
	userService services.UserService
}

func NewWebSocketHandler(hub *realtime.Hub, us services.UserService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: us,
	}
}

// ServeWs подключает клиента к комнате его команды: туда приходят события
// подтверждения и отмены скримов.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// В комнату команды пускаем только её участников.
	user, err := h.userService.GetProfile(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if user.TeamID == nil || *user.TeamID != teamID {
		forbiddenResponse(w, r, services.ErrTeamMembershipRequired.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for user %d: %v", currentUserID, err)
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		return
	}

	roomID := services.TeamRoom(teamID)

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256), // Буферизированный канал
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Printf("Client registered in room %s", roomID)
}
