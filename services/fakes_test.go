package services

import (
	"context"
	"sync"
	"time"

	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/repositories"
)

// In-memory fakes for the repository interfaces. The slot fake reproduces the
// compare-and-swap contract of the real store: Claim either performs the full
// transition under a lock or reports ErrSlotNotClaimable without writing.

type fakeSlotRepo struct {
	mu     sync.Mutex
	slots  map[int]*models.ScrimSlot
	nextID int
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[int]*models.ScrimSlot), nextID: 1}
}

func (f *fakeSlotRepo) add(slot models.ScrimSlot) *models.ScrimSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot.ID = f.nextID
	f.nextID++
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now()
	}
	slot.UpdatedAt = slot.CreatedAt
	f.slots[slot.ID] = &slot
	return &slot
}

func (f *fakeSlotRepo) Create(ctx context.Context, slot *models.ScrimSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot.ID = f.nextID
	f.nextID++
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeSlotRepo) GetByID(ctx context.Context, id int) (*models.ScrimSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok {
		return nil, repositories.ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func (f *fakeSlotRepo) Claim(ctx context.Context, slotID, claimingTeamID int) (*models.ScrimSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok ||
		slot.Status != models.SlotStatusOpen ||
		slot.OpponentTeamID != nil ||
		slot.HostTeamID == claimingTeamID {
		return nil, repositories.ErrSlotNotClaimable
	}
	teamID := claimingTeamID
	slot.Status = models.SlotStatusConfirmed
	slot.OpponentTeamID = &teamID
	slot.UpdatedAt = time.Now()
	cp := *slot
	return &cp, nil
}

func (f *fakeSlotRepo) List(ctx context.Context, filter repositories.ListSlotsFilter) ([]models.ScrimSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.ScrimSlot, 0)
	for _, slot := range f.slots {
		if filter.Status != nil && slot.Status != *filter.Status {
			continue
		}
		if filter.GameID != nil && slot.GameID != *filter.GameID {
			continue
		}
		if filter.Region != nil && slot.Region != *filter.Region {
			continue
		}
		if filter.ExcludeTeamID != nil && slot.HostTeamID == *filter.ExcludeTeamID {
			continue
		}
		if filter.StartAfter != nil && slot.StartTime.Before(*filter.StartAfter) {
			continue
		}
		if filter.StartBefore != nil && slot.StartTime.After(*filter.StartBefore) {
			continue
		}
		result = append(result, *slot)
	}
	return result, nil
}

func (f *fakeSlotRepo) ListByTeam(ctx context.Context, teamID int) ([]models.ScrimSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.ScrimSlot, 0)
	for _, slot := range f.slots {
		if slot.HostTeamID == teamID || (slot.OpponentTeamID != nil && *slot.OpponentTeamID == teamID) {
			result = append(result, *slot)
		}
	}
	return result, nil
}

func (f *fakeSlotRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.ScrimSlotStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok || slot.Status != from {
		return repositories.ErrSlotNotFound
	}
	slot.Status = to
	slot.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSlotRepo) CancelExpired(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	for _, slot := range f.slots {
		if (slot.Status == models.SlotStatusOpen || slot.Status == models.SlotStatusPending) && !slot.StartTime.After(now) {
			slot.Status = models.SlotStatusCancelled
			slot.UpdatedAt = time.Now()
			ids = append(ids, slot.ID)
		}
	}
	return ids, nil
}

func (f *fakeSlotRepo) CountNonCancelledByTeam(ctx context.Context, teamID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, slot := range f.slots {
		if slot.Status == models.SlotStatusCancelled {
			continue
		}
		if slot.HostTeamID == teamID || (slot.OpponentTeamID != nil && *slot.OpponentTeamID == teamID) {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (f *fakeUserRepo) add(user models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = &user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	user.ID = len(f.users) + 1
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdateTeamID(ctx context.Context, exec repositories.SQLExecutor, userID int, teamID *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.TeamID = teamID
	return nil
}

func (f *fakeUserRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.User, 0)
	for _, user := range f.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			result = append(result, *user)
		}
	}
	return result, nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (f *fakeTeamRepo) add(team models.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[team.ID] = &team
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.teams {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = len(f.teams) + 1
	team.CreatedAt = time.Now()
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *team
	return &cp, nil
}

func (f *fakeTeamRepo) Update(ctx context.Context, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeamRepo) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = logoKey
	return nil
}

func (f *fakeTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(f.teams, id)
	return nil
}

type fakeGameRepo struct {
	games map[int]*models.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int]*models.Game)}
}

func (f *fakeGameRepo) add(game models.Game) {
	f.games[game.ID] = &game
}

func (f *fakeGameRepo) Create(ctx context.Context, game *models.Game) error {
	game.ID = len(f.games) + 1
	cp := *game
	f.games[game.ID] = &cp
	return nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	game, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *game
	return &cp, nil
}

func (f *fakeGameRepo) List(ctx context.Context) ([]models.Game, error) {
	result := make([]models.Game, 0, len(f.games))
	for _, game := range f.games {
		result = append(result, *game)
	}
	return result, nil
}

func (f *fakeGameRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(f.games, id)
	return nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[int]*models.Invite
	nextID  int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[int]*models.Invite), nextID: 1}
}

func (f *fakeInviteRepo) add(invite models.Invite) *models.Invite {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite.ID = f.nextID
	f.nextID++
	f.invites[invite.ID] = &invite
	return &invite
}

func (f *fakeInviteRepo) Create(ctx context.Context, invite *models.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.invites {
		if existing.Token == invite.Token {
			return repositories.ErrInviteTokenConflict
		}
	}
	invite.ID = f.nextID
	f.nextID++
	invite.CreatedAt = time.Now()
	cp := *invite
	f.invites[invite.ID] = &cp
	return nil
}

func (f *fakeInviteRepo) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, invite := range f.invites {
		if invite.Token == token {
			cp := *invite
			return &cp, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (f *fakeInviteRepo) GetByID(ctx context.Context, id int) (*models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite, ok := f.invites[id]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	cp := *invite
	return &cp, nil
}

func (f *fakeInviteRepo) ListByTeamID(ctx context.Context, teamID int) ([]*models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]*models.Invite, 0)
	for _, invite := range f.invites {
		if invite.TeamID == teamID {
			cp := *invite
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeInviteRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invites[id]; !ok {
		return repositories.ErrInviteNotFound
	}
	delete(f.invites, id)
	return nil
}

func (f *fakeInviteRepo) DeleteExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, invite := range f.invites {
		if invite.ExpiresAt.Before(time.Now()) {
			delete(f.invites, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeNotifier records delivered notifications instead of touching the hub
// or the broker.
type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []*models.ScrimSlot
	cancelled []*models.ScrimSlot
}

func (f *fakeNotifier) SlotConfirmed(ctx context.Context, slot *models.ScrimSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, slot)
}

func (f *fakeNotifier) SlotCancelled(ctx context.Context, slot *models.ScrimSlot, actorTeamID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, slot)
}

func (f *fakeNotifier) ListTeamNotifications(ctx context.Context, teamID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkRead(ctx context.Context, teamID, notificationID int) error {
	return nil
}

func (f *fakeNotifier) confirmedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmed)
}

func (f *fakeNotifier) cancelledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cancelled)
}
