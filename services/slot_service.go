package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oiyahen/scrim-scheduler/cache"
	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/repositories"
)

type CreateSlotInput struct {
	GameID    int       `json:"game_id"`
	Region    string    `json:"region"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes"`
	Draft     bool      `json:"draft"` // true => слот создаётся в статусе pending
}

type BrowseSlotsInput struct {
	GameID      *int
	Region      *models.Region
	StartAfter  *time.Time
	StartBefore *time.Time
	Limit       int
	Offset      int
}

type SlotService interface {
	CreateSlot(ctx context.Context, currentUserID int, input CreateSlotInput) (*models.ScrimSlot, error)
	GetSlot(ctx context.Context, slotID int) (*models.ScrimSlot, error)

	// AcceptOpenSlot attempts the open -> confirmed transition on behalf of
	// the current user's team. Exactly one concurrent caller can succeed;
	// all others receive a claim error that must not be retried blindly.
	AcceptOpenSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error)

	PublishSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error)
	CancelSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error)
	BrowseOpenSlots(ctx context.Context, currentUserID int, input BrowseSlotsInput) ([]models.ScrimSlot, error)
	ListTeamSlots(ctx context.Context, teamID int) ([]models.ScrimSlot, error)

	// CancelExpiredSlots is the scheduler entry point: it cancels open and
	// pending slots whose start time has passed.
	CancelExpiredSlots(ctx context.Context) error
}

type slotService struct {
	db        *sql.DB
	slotRepo  repositories.SlotRepository
	userRepo  repositories.UserRepository
	teamRepo  repositories.TeamRepository
	gameRepo  repositories.GameRepository
	notifier  NotificationService
	slotCache *cache.SlotCache
	logger    *slog.Logger
}

func NewSlotService(
	db *sql.DB,
	slotRepo repositories.SlotRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	gameRepo repositories.GameRepository,
	notifier NotificationService,
	slotCache *cache.SlotCache,
	logger *slog.Logger,
) SlotService {
	return &slotService{
		db:        db,
		slotRepo:  slotRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		gameRepo:  gameRepo,
		notifier:  notifier,
		slotCache: slotCache,
		logger:    logger,
	}
}

// resolveCaptainTeam возвращает команду пользователя, если он её капитан.
func (s *slotService) resolveCaptainTeam(ctx context.Context, currentUserID int) (*models.Team, error) {
	team, err := s.resolveTeam(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}
	return team, nil
}

func (s *slotService) resolveTeam(ctx context.Context, currentUserID int) (*models.Team, error) {
	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}
	if user.TeamID == nil {
		return nil, ErrTeamMembershipRequired
	}
	team, err := s.teamRepo.GetByID(ctx, *user.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", *user.TeamID, err)
	}
	return team, nil
}

func (s *slotService) CreateSlot(ctx context.Context, currentUserID int, input CreateSlotInput) (*models.ScrimSlot, error) {
	team, err := s.resolveCaptainTeam(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	region := models.Region(input.Region)
	if !region.Valid() {
		return nil, ErrSlotInvalidRegion
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrSlotInvalidWindow
	}
	if input.StartTime.Before(time.Now()) {
		return nil, ErrSlotWindowInPast
	}
	if _, err := s.gameRepo.GetByID(ctx, input.GameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to validate game %d: %w", input.GameID, err)
	}

	status := models.SlotStatusOpen
	if input.Draft {
		status = models.SlotStatusPending
	}

	slot := &models.ScrimSlot{
		HostTeamID: team.ID,
		GameID:     input.GameID,
		Region:     region,
		Status:     status,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Notes:      input.Notes,
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create scrim slot: %w", err)
	}

	s.slotCache.InvalidateBrowse(ctx)
	return slot, nil
}

func (s *slotService) GetSlot(ctx context.Context, slotID int) (*models.ScrimSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, repositories.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get scrim slot %d: %w", slotID, err)
	}
	return slot, nil
}

func (s *slotService) AcceptOpenSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error) {
	team, err := s.resolveCaptainTeam(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	// Единственная запись — условный UPDATE в репозитории. Никаких
	// предварительных чтений статуса: гонку решает БД.
	slot, err := s.slotRepo.Claim(ctx, slotID, team.ID)
	if err == nil {
		s.slotCache.InvalidateBrowse(ctx)
		s.notifier.SlotConfirmed(ctx, slot)
		return slot, nil
	}

	if !errors.Is(err, repositories.ErrSlotNotClaimable) {
		// Сбой самого хранилища: вызывающая сторона может повторить запрос,
		// повтор сам перепроверит предикат.
		return nil, fmt.Errorf("failed to claim scrim slot %d: %w", slotID, err)
	}

	// Advisory re-read, только ради пользовательского сообщения. Исход
	// клейма уже определён и не пересматривается.
	current, readErr := s.slotRepo.GetByID(ctx, slotID)
	if readErr != nil {
		if errors.Is(readErr, repositories.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, ErrSlotNotClaimable
	}
	switch {
	case current.HostTeamID == team.ID:
		return nil, ErrOwnSlotClaim
	case current.Claimed():
		return nil, ErrSlotAlreadyClaimed
	case current.Status != models.SlotStatusOpen:
		return nil, ErrSlotNotOpen
	default:
		return nil, ErrSlotNotClaimable
	}
}

func (s *slotService) PublishSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error) {
	team, err := s.resolveCaptainTeam(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.HostTeamID != team.ID {
		return nil, ErrForbiddenOperation
	}
	if slot.Status != models.SlotStatusPending {
		return nil, ErrSlotNotPending
	}

	err = s.slotRepo.UpdateStatus(ctx, nil, slotID, models.SlotStatusPending, models.SlotStatusOpen)
	if err != nil {
		if errors.Is(err, repositories.ErrSlotNotFound) {
			// Статус изменился между чтением и записью; перечитывать нет
			// смысла — переход защищён предикатом.
			return nil, ErrSlotNotPending
		}
		return nil, fmt.Errorf("failed to publish scrim slot %d: %w", slotID, err)
	}

	s.slotCache.InvalidateBrowse(ctx)
	return s.GetSlot(ctx, slotID)
}

func (s *slotService) CancelSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error) {
	team, err := s.resolveCaptainTeam(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	switch slot.Status {
	case models.SlotStatusOpen, models.SlotStatusPending:
		if slot.HostTeamID != team.ID {
			return nil, ErrForbiddenOperation
		}
	case models.SlotStatusConfirmed:
		// Подтверждённый скрим может отменить капитан любой из сторон.
		if slot.HostTeamID != team.ID && (slot.OpponentTeamID == nil || *slot.OpponentTeamID != team.ID) {
			return nil, ErrForbiddenOperation
		}
	default:
		return nil, ErrSlotNotCancellable
	}

	err = s.slotRepo.UpdateStatus(ctx, nil, slotID, slot.Status, models.SlotStatusCancelled)
	if err != nil {
		if errors.Is(err, repositories.ErrSlotNotFound) {
			return nil, ErrSlotNotCancellable
		}
		return nil, fmt.Errorf("failed to cancel scrim slot %d: %w", slotID, err)
	}

	s.slotCache.InvalidateBrowse(ctx)

	cancelled, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	s.notifier.SlotCancelled(ctx, cancelled, team.ID)
	return cancelled, nil
}

func (s *slotService) BrowseOpenSlots(ctx context.Context, currentUserID int, input BrowseSlotsInput) ([]models.ScrimSlot, error) {
	team, err := s.resolveTeam(ctx, currentUserID)
	if err != nil && !errors.Is(err, ErrTeamMembershipRequired) {
		return nil, err
	}

	excludeTeamID := 0
	var excludePtr *int
	if team != nil {
		excludeTeamID = team.ID
		excludePtr = &team.ID
	}

	gameID := 0
	if input.GameID != nil {
		gameID = *input.GameID
	}
	region := ""
	if input.Region != nil {
		region = string(*input.Region)
	}

	// Кэшируются только запросы без временных фильтров: ключ по времени
	// практически не переиспользуется.
	cacheable := input.StartAfter == nil && input.StartBefore == nil
	key := cache.BrowseKey(gameID, excludeTeamID, region, string(models.SlotStatusOpen), input.Limit, input.Offset)
	if cacheable {
		if cached, ok := s.slotCache.GetBrowse(ctx, key); ok {
			return cached, nil
		}
	}

	status := models.SlotStatusOpen
	slots, err := s.slotRepo.List(ctx, repositories.ListSlotsFilter{
		GameID:        input.GameID,
		Region:        input.Region,
		Status:        &status,
		StartAfter:    input.StartAfter,
		StartBefore:   input.StartBefore,
		ExcludeTeamID: excludePtr,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to browse open slots: %w", err)
	}

	if cacheable {
		s.slotCache.SetBrowse(ctx, key, slots)
	}
	return slots, nil
}

func (s *slotService) ListTeamSlots(ctx context.Context, teamID int) ([]models.ScrimSlot, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	slots, err := s.slotRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for team %d: %w", teamID, err)
	}
	return slots, nil
}

func (s *slotService) CancelExpiredSlots(ctx context.Context) error {
	ids, err := s.slotRepo.CancelExpired(ctx, nil, time.Now())
	if err != nil {
		return fmt.Errorf("failed to cancel expired slots: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	s.slotCache.InvalidateBrowse(ctx)
	s.logger.Info("expired scrim slots cancelled", slog.Int("count", len(ids)))

	for _, id := range ids {
		slot, getErr := s.slotRepo.GetByID(ctx, id)
		if getErr != nil {
			s.logger.Error("failed to load expired slot for notification",
				slog.Int("slot_id", id), slog.Any("error", getErr))
			continue
		}
		s.notifier.SlotCancelled(ctx, slot, 0)
	}
	return nil
}
