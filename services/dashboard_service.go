package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	TeamDashboard(ctx context.Context, teamID int) (*models.TeamDashboard, error)
}

type dashboardService struct {
	statsRepo repositories.StatsRepository
	teamRepo  repositories.TeamRepository
}

func NewDashboardService(statsRepo repositories.StatsRepository, teamRepo repositories.TeamRepository) DashboardService {
	return &dashboardService{
		statsRepo: statsRepo,
		teamRepo:  teamRepo,
	}
}

func (s *dashboardService) TeamDashboard(ctx context.Context, teamID int) (*models.TeamDashboard, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	dashboard := &models.TeamDashboard{TeamID: teamID}
	now := time.Now()

	// Счётчики независимы, собираем их параллельно.
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.statsRepo.CountHosted(gCtx, teamID)
		dashboard.HostedTotal = n
		return err
	})
	g.Go(func() error {
		n, err := s.statsRepo.CountClaimed(gCtx, teamID)
		dashboard.ClaimedTotal = n
		return err
	})
	g.Go(func() error {
		n, err := s.statsRepo.CountUpcomingConfirmed(gCtx, teamID, now)
		dashboard.UpcomingConfirmed = n
		return err
	})
	g.Go(func() error {
		n, err := s.statsRepo.CountPlayed(gCtx, teamID, now)
		dashboard.PlayedTotal = n
		return err
	})
	g.Go(func() error {
		n, err := s.statsRepo.CountCancelled(gCtx, teamID)
		dashboard.CancelledTotal = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard for team %d: %w", teamID, err)
	}
	return dashboard, nil
}
