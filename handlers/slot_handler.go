package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/oiyahen/scrim-scheduler/middleware"
	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/services"
)

type SlotHandler struct {
	slotService services.SlotService
}

func NewSlotHandler(ss services.SlotService) *SlotHandler {
	return &SlotHandler{
		slotService: ss,
	}
}

func (h *SlotHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateSlotInput
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slot, err := h.slotService.CreateSlot(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slot": slot,
	}

	err = writeJSON(w, http.StatusCreated, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) GetSlotByID(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slot, err := h.slotService.GetSlot(r.Context(), slotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slot": slot,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BrowseSlots обрабатывает GET /slots: открытые слоты других команд.
func (h *SlotHandler) BrowseSlots(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	// Парсинг query параметров для фильтрации
	var input services.BrowseSlotsInput
	query := r.URL.Query()

	if gameIDStr := query.Get("game_id"); gameIDStr != "" {
		if id, err := strconv.Atoi(gameIDStr); err == nil && id > 0 {
			input.GameID = &id
		} else {
			badRequestResponse(w, r, errors.New("invalid game_id query parameter"))
			return
		}
	}
	if regionStr := query.Get("region"); regionStr != "" {
		region := models.Region(regionStr)
		if !region.Valid() {
			badRequestResponse(w, r, errors.New("invalid region query parameter"))
			return
		}
		input.Region = &region
	}
	if afterStr := query.Get("start_after"); afterStr != "" {
		if t, err := time.Parse(time.RFC3339, afterStr); err == nil {
			input.StartAfter = &t
		} else {
			badRequestResponse(w, r, errors.New("invalid start_after query parameter, expected RFC3339"))
			return
		}
	}
	if beforeStr := query.Get("start_before"); beforeStr != "" {
		if t, err := time.Parse(time.RFC3339, beforeStr); err == nil {
			input.StartBefore = &t
		} else {
			badRequestResponse(w, r, errors.New("invalid start_before query parameter, expected RFC3339"))
			return
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			input.Limit = limit
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	} else {
		input.Limit = 20 // Значение по умолчанию
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			input.Offset = offset
		} else {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	slots, err := h.slotService.BrowseOpenSlots(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slots": slots,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptSlot обрабатывает POST /slots/{slotID}/accept. Успех означает, что
// слот достался именно этой команде; 409 с причиной — что слот уже ушёл.
func (h *SlotHandler) AcceptSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	slot, err := h.slotService.AcceptOpenSlot(r.Context(), currentUserID, slotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slot": slot,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) PublishSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	slot, err := h.slotService.PublishSlot(r.Context(), currentUserID, slotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slot": slot,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) CancelSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	slot, err := h.slotService.CancelSlot(r.Context(), currentUserID, slotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slot": slot,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SlotHandler) ListTeamSlots(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.slotService.ListTeamSlots(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"slots": slots,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
