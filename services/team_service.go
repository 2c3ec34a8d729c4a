package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/repositories"
	"github.com/oiyahen/scrim-scheduler/storage"
)

type CreateTeamInput struct {
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	GameID int    `json:"game_id"`
	Region string `json:"region"`
}

type UpdateTeamInput struct {
	Name   *string `json:"name"`
	Tag    *string `json:"tag"`
	Region *string `json:"region"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, currentUserID int, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	UpdateTeam(ctx context.Context, currentUserID, teamID int, input UpdateTeamInput) (*models.Team, error)
	UploadLogo(ctx context.Context, currentUserID, teamID int, contentType string, file io.Reader) (*models.Team, error)
	ListMembers(ctx context.Context, teamID int) ([]models.User, error)
	RemoveMember(ctx context.Context, currentUserID, teamID, memberID int) error
	DisbandTeam(ctx context.Context, currentUserID, teamID int) error
}

type teamService struct {
	db       *sql.DB
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	gameRepo repositories.GameRepository
	slotRepo repositories.SlotRepository
	uploader storage.FileUploader
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	gameRepo repositories.GameRepository,
	slotRepo repositories.SlotRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		db:       db,
		teamRepo: teamRepo,
		userRepo: userRepo,
		gameRepo: gameRepo,
		slotRepo: slotRepo,
		uploader: uploader,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, currentUserID int, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	region := models.Region(input.Region)
	if !region.Valid() {
		return nil, ErrSlotInvalidRegion
	}

	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}
	if user.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}
	if _, err := s.gameRepo.GetByID(ctx, input.GameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to validate game %d: %w", input.GameID, err)
	}

	team := &models.Team{
		Name:      input.Name,
		Tag:       input.Tag,
		GameID:    input.GameID,
		Region:    region,
		CaptainID: currentUserID,
	}

	// Создание команды и членство капитана — одна транзакция.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.teamRepo.Create(ctx, tx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamTagConflict):
			return nil, ErrTeamTagConflict
		case errors.Is(err, repositories.ErrTeamGameInvalid):
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if err := s.userRepo.UpdateTeamID(ctx, tx, currentUserID, &team.ID); err != nil {
		return nil, fmt.Errorf("failed to add captain to team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if s.uploader != nil && team.LogoKey != nil {
		url := s.uploader.GetPublicURL(*team.LogoKey)
		team.LogoURL = &url
	}

	members, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err == nil {
		for i := range members {
			members[i].PasswordHash = ""
		}
		team.Members = members
	}
	return team, nil
}

func (s *teamService) requireCaptain(ctx context.Context, currentUserID, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}
	return team, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, currentUserID, teamID int, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.requireCaptain(ctx, currentUserID, teamID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = *input.Name
	}
	if input.Tag != nil {
		team.Tag = *input.Tag
	}
	if input.Region != nil {
		region := models.Region(*input.Region)
		if !region.Valid() {
			return nil, ErrSlotInvalidRegion
		}
		team.Region = region
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamTagConflict):
			return nil, ErrTeamTagConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) UploadLogo(ctx context.Context, currentUserID, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.requireCaptain(ctx, currentUserID, teamID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("teams/%d/logo", teamID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to persist team logo key: %w", err)
	}

	team.LogoKey = &result.Key
	team.LogoURL = &result.Location
	return team, nil
}

func (s *teamService) ListMembers(ctx context.Context, teamID int) ([]models.User, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	members, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members for team %d: %w", teamID, err)
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	return members, nil
}

func (s *teamService) RemoveMember(ctx context.Context, currentUserID, teamID, memberID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	// Убрать участника может капитан; выйти самостоятельно — сам участник.
	if currentUserID != team.CaptainID && currentUserID != memberID {
		return ErrSelfLeaveForbidden
	}
	if memberID == team.CaptainID {
		return ErrCannotRemoveCaptain
	}

	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", memberID, err)
	}
	if member.TeamID == nil || *member.TeamID != teamID {
		return ErrUserNotInTeam
	}

	if err := s.userRepo.UpdateTeamID(ctx, nil, memberID, nil); err != nil {
		return fmt.Errorf("failed to remove member %d from team %d: %w", memberID, teamID, err)
	}
	return nil
}

func (s *teamService) DisbandTeam(ctx context.Context, currentUserID, teamID int) error {
	if _, err := s.requireCaptain(ctx, currentUserID, teamID); err != nil {
		return err
	}

	active, err := s.slotRepo.CountNonCancelledByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to count active slots for team %d: %w", teamID, err)
	}
	if active > 0 {
		return ErrTeamHasActiveSlots
	}

	members, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list members for team %d: %w", teamID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, member := range members {
		if err := s.userRepo.UpdateTeamID(ctx, tx, member.ID, nil); err != nil {
			return fmt.Errorf("failed to detach member %d: %w", member.ID, err)
		}
	}
	if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamInUse) {
			return ErrTeamHasActiveSlots
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team disband: %w", err)
	}
	return nil
}
