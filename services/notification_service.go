package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/queue"
	"github.com/oiyahen/scrim-scheduler/realtime"
	"github.com/oiyahen/scrim-scheduler/repositories"
)

// NotificationService доставляет события по трём каналам: строка в БД,
// websocket-комната команды и событие в брокере. Ошибки доставки не
// прерывают основную операцию — логируются и глотаются.
type NotificationService interface {
	SlotConfirmed(ctx context.Context, slot *models.ScrimSlot)

	// SlotCancelled notifies both parties except actorTeamID (0 = notify
	// everyone, used by the expiry sweep).
	SlotCancelled(ctx context.Context, slot *models.ScrimSlot, actorTeamID int)

	ListTeamNotifications(ctx context.Context, teamID int, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, teamID, notificationID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	hub              *realtime.Hub
	publisher        *queue.Publisher
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	hub *realtime.Hub,
	publisher *queue.Publisher,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		hub:              hub,
		publisher:        publisher,
		logger:           logger,
	}
}

func TeamRoom(teamID int) string {
	return fmt.Sprintf("team_%d", teamID)
}

func (s *notificationService) deliver(ctx context.Context, teamID int, msgType string, n *models.Notification, payload interface{}) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("failed to persist notification",
			slog.Int("team_id", teamID), slog.Any("error", err))
	}
	s.hub.BroadcastToRoom(TeamRoom(teamID), realtime.Message{
		Type:    msgType,
		Payload: payload,
		RoomID:  TeamRoom(teamID),
	})
}

func (s *notificationService) SlotConfirmed(ctx context.Context, slot *models.ScrimSlot) {
	if slot.OpponentTeamID == nil {
		return
	}
	opponentID := *slot.OpponentTeamID

	// Хост узнаёт, что его слот забрали; соперник получает подтверждение.
	hostNote := &models.Notification{
		TeamID:  slot.HostTeamID,
		SlotID:  &slot.ID,
		Type:    models.NotificationSlotConfirmed,
		Message: fmt.Sprintf("Your scrim slot on %s was accepted", slot.StartTime.Format("Jan 2 15:04")),
	}
	s.deliver(ctx, slot.HostTeamID, "SLOT_CONFIRMED", hostNote, slot)

	oppNote := &models.Notification{
		TeamID:  opponentID,
		SlotID:  &slot.ID,
		Type:    models.NotificationSlotConfirmed,
		Message: fmt.Sprintf("Scrim on %s confirmed", slot.StartTime.Format("Jan 2 15:04")),
	}
	s.deliver(ctx, opponentID, "SLOT_CONFIRMED", oppNote, slot)

	event := queue.SlotConfirmedEvent{
		SlotID:         slot.ID,
		HostTeamID:     slot.HostTeamID,
		OpponentTeamID: opponentID,
		GameID:         slot.GameID,
		Region:         string(slot.Region),
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		ConfirmedAt:    slot.UpdatedAt,
	}
	if err := s.publisher.PublishJSON(ctx, queue.KeySlotConfirmed, event); err != nil {
		s.logger.Error("failed to publish slot confirmed event",
			slog.Int("slot_id", slot.ID), slog.Any("error", err))
	}
}

func (s *notificationService) SlotCancelled(ctx context.Context, slot *models.ScrimSlot, actorTeamID int) {
	message := fmt.Sprintf("Scrim slot on %s was cancelled", slot.StartTime.Format("Jan 2 15:04"))

	recipients := []int{slot.HostTeamID}
	if slot.OpponentTeamID != nil {
		recipients = append(recipients, *slot.OpponentTeamID)
	}
	for _, teamID := range recipients {
		if teamID == actorTeamID {
			continue
		}
		n := &models.Notification{
			TeamID:  teamID,
			SlotID:  &slot.ID,
			Type:    models.NotificationSlotCancelled,
			Message: message,
		}
		s.deliver(ctx, teamID, "SLOT_CANCELLED", n, slot)
	}

	event := queue.SlotCancelledEvent{
		SlotID:         slot.ID,
		HostTeamID:     slot.HostTeamID,
		OpponentTeamID: slot.OpponentTeamID,
		CancelledAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(ctx, queue.KeySlotCancelled, event); err != nil {
		s.logger.Error("failed to publish slot cancelled event",
			slog.Int("slot_id", slot.ID), slog.Any("error", err))
	}
}

func (s *notificationService) ListTeamNotifications(ctx context.Context, teamID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListByTeam(ctx, teamID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for team %d: %w", teamID, err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, teamID, notificationID int) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark notification %d read: %w", notificationID, err)
	}
	return nil
}
