package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oiyahen/scrim-scheduler/models"
)

func newInviteFixture() (InviteService, *fakeInviteRepo, *fakeTeamRepo, *fakeUserRepo) {
	invites := newFakeInviteRepo()
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()

	teamID := 1
	users.add(models.User{ID: 1, Nickname: "captain", Email: "captain@example.com", TeamID: &teamID})
	users.add(models.User{ID: 2, Nickname: "free-agent", Email: "agent@example.com"})
	teams.add(models.Team{ID: 1, Name: "Alpha", Tag: "ALP", GameID: 1, Region: models.RegionEU, CaptainID: 1})

	return NewInviteService(invites, teams, users), invites, teams, users
}

func TestCreateInvite(t *testing.T) {
	t.Run("captain creates an invite", func(t *testing.T) {
		service, _, _, _ := newInviteFixture()

		invite, err := service.CreateInvite(context.Background(), 1, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if invite.Token == "" {
			t.Error("invite token must be set")
		}
		if !invite.ExpiresAt.After(time.Now()) {
			t.Error("invite must not be created already expired")
		}
	})

	t.Run("non-captain cannot create invites", func(t *testing.T) {
		service, _, _, _ := newInviteFixture()

		_, err := service.CreateInvite(context.Background(), 1, 2)
		if !errors.Is(err, ErrCaptainActionForbidden) {
			t.Fatalf("error = %v, want ErrCaptainActionForbidden", err)
		}
	})
}

func TestAcceptInvite(t *testing.T) {
	t.Run("free agent joins the team", func(t *testing.T) {
		service, invites, _, users := newInviteFixture()
		invite := invites.add(models.Invite{
			TeamID:    1,
			Token:     "token-1",
			ExpiresAt: time.Now().Add(time.Hour),
		})

		team, err := service.AcceptInvite(context.Background(), invite.Token, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if team.ID != 1 {
			t.Errorf("team ID = %d, want 1", team.ID)
		}

		user, _ := users.GetByID(context.Background(), 2)
		if user.TeamID == nil || *user.TeamID != 1 {
			t.Errorf("user team = %v, want 1", user.TeamID)
		}
	})

	t.Run("expired invite is rejected", func(t *testing.T) {
		service, invites, _, _ := newInviteFixture()
		invite := invites.add(models.Invite{
			TeamID:    1,
			Token:     "token-2",
			ExpiresAt: time.Now().Add(-time.Hour),
		})

		_, err := service.AcceptInvite(context.Background(), invite.Token, 2)
		if !errors.Is(err, ErrInviteExpired) {
			t.Fatalf("error = %v, want ErrInviteExpired", err)
		}
	})

	t.Run("user already in a team cannot accept", func(t *testing.T) {
		service, invites, _, _ := newInviteFixture()
		invite := invites.add(models.Invite{
			TeamID:    1,
			Token:     "token-3",
			ExpiresAt: time.Now().Add(time.Hour),
		})

		_, err := service.AcceptInvite(context.Background(), invite.Token, 1)
		if !errors.Is(err, ErrUserAlreadyInTeam) {
			t.Fatalf("error = %v, want ErrUserAlreadyInTeam", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		service, _, _, _ := newInviteFixture()

		_, err := service.AcceptInvite(context.Background(), "no-such-token", 2)
		if !errors.Is(err, ErrInviteNotFound) {
			t.Fatalf("error = %v, want ErrInviteNotFound", err)
		}
	})
}

func TestDeleteInvite(t *testing.T) {
	t.Run("captain revokes an invite", func(t *testing.T) {
		service, invites, _, _ := newInviteFixture()
		invite := invites.add(models.Invite{
			TeamID:    1,
			Token:     "token-4",
			ExpiresAt: time.Now().Add(time.Hour),
		})

		if err := service.DeleteInvite(context.Background(), invite.ID, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := invites.GetByID(context.Background(), invite.ID); err == nil {
			t.Error("invite must be deleted")
		}
	})

	t.Run("non-captain cannot revoke", func(t *testing.T) {
		service, invites, _, _ := newInviteFixture()
		invite := invites.add(models.Invite{
			TeamID:    1,
			Token:     "token-5",
			ExpiresAt: time.Now().Add(time.Hour),
		})

		err := service.DeleteInvite(context.Background(), invite.ID, 2)
		if !errors.Is(err, ErrCaptainActionForbidden) {
			t.Fatalf("error = %v, want ErrCaptainActionForbidden", err)
		}
	})
}
