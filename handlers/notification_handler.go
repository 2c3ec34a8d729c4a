package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/oiyahen/scrim-scheduler/middleware"
	"github.com/oiyahen/scrim-scheduler/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
	userService         services.UserService
}

func NewNotificationHandler(ns services.NotificationService, us services.UserService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: ns,
		userService:         us,
	}
}

// currentTeamID разрешает команду текущего пользователя: уведомления
// адресованы командам, а не отдельным игрокам.
func (h *NotificationHandler) currentTeamID(r *http.Request) (int, error) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return 0, err
	}

	user, err := h.userService.GetProfile(r.Context(), currentUserID)
	if err != nil {
		return 0, err
	}
	if user.TeamID == nil {
		return 0, services.ErrTeamMembershipRequired
	}

	return *user.TeamID, nil
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.currentTeamID(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	query := r.URL.Query()
	unreadOnly := query.Get("unread") == "true"

	limit := 50 // Значение по умолчанию
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	}

	notifications, err := h.notificationService.ListTeamNotifications(r.Context(), teamID, unreadOnly, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"notifications": notifications,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := getIDFromURL(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teamID, err := h.currentTeamID(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = h.notificationService.MarkRead(r.Context(), teamID, notificationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
