package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/oiyahen/scrim-scheduler/middleware"
	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/oiyahen/scrim-scheduler/services"
)

const testJWTSecret = "test-secret"

// fakeSlotService returns canned results; the handler tests only cover HTTP
// semantics, claim behaviour itself is tested in the services package.
type fakeSlotService struct {
	acceptSlot *models.ScrimSlot
	acceptErr  error
	browse     []models.ScrimSlot
	browseErr  error
}

func (f *fakeSlotService) CreateSlot(ctx context.Context, currentUserID int, input services.CreateSlotInput) (*models.ScrimSlot, error) {
	return nil, services.ErrForbiddenOperation
}

func (f *fakeSlotService) GetSlot(ctx context.Context, slotID int) (*models.ScrimSlot, error) {
	return nil, services.ErrSlotNotFound
}

func (f *fakeSlotService) AcceptOpenSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error) {
	return f.acceptSlot, f.acceptErr
}

func (f *fakeSlotService) PublishSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error) {
	return nil, services.ErrSlotNotPending
}

func (f *fakeSlotService) CancelSlot(ctx context.Context, currentUserID int, slotID int) (*models.ScrimSlot, error) {
	return nil, services.ErrSlotNotCancellable
}

func (f *fakeSlotService) BrowseOpenSlots(ctx context.Context, currentUserID int, input services.BrowseSlotsInput) ([]models.ScrimSlot, error) {
	return f.browse, f.browseErr
}

func (f *fakeSlotService) ListTeamSlots(ctx context.Context, teamID int) ([]models.ScrimSlot, error) {
	return nil, nil
}

func (f *fakeSlotService) CancelExpiredSlots(ctx context.Context) error {
	return nil
}

func newSlotTestRouter(service services.SlotService) *chi.Mux {
	h := NewSlotHandler(service)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Post("/slots/{slotID}/accept", h.AcceptSlot)
		r.Get("/slots", h.BrowseSlots)
	})
	return router
}

func testToken(t *testing.T, userID int) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "player",
		"name":    "tester",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func TestAcceptSlotHandler(t *testing.T) {
	t.Run("successful claim returns the confirmed slot", func(t *testing.T) {
		opponent := 2
		router := newSlotTestRouter(&fakeSlotService{
			acceptSlot: &models.ScrimSlot{
				ID:             7,
				HostTeamID:     1,
				OpponentTeamID: &opponent,
				Status:         models.SlotStatusConfirmed,
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/slots/7/accept", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body struct {
			Slot models.ScrimSlot `json:"slot"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Slot.Status != models.SlotStatusConfirmed {
			t.Errorf("slot status = %q, want %q", body.Slot.Status, models.SlotStatusConfirmed)
		}
	})

	t.Run("lost claim returns 409 with a reason", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{
			acceptErr: services.ErrSlotAlreadyClaimed,
		})

		req := httptest.NewRequest(http.MethodPost, "/slots/7/accept", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
		}

		var body struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Reason != services.ErrSlotAlreadyClaimed.Error() {
			t.Errorf("reason = %q, want %q", body.Reason, services.ErrSlotAlreadyClaimed.Error())
		}
	})

	t.Run("missing slot returns 404", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{
			acceptErr: services.ErrSlotNotFound,
		})

		req := httptest.NewRequest(http.MethodPost, "/slots/7/accept", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("request without token is unauthorized", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{})

		req := httptest.NewRequest(http.MethodPost, "/slots/7/accept", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("non-numeric slot id is a bad request", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{})

		req := httptest.NewRequest(http.MethodPost, "/slots/abc/accept", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestBrowseSlotsHandler(t *testing.T) {
	t.Run("returns open slots", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{
			browse: []models.ScrimSlot{
				{ID: 1, HostTeamID: 2, Status: models.SlotStatusOpen},
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/slots?game_id=1&region=eu", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body struct {
			Slots []models.ScrimSlot `json:"slots"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(body.Slots) != 1 {
			t.Errorf("len(slots) = %d, want 1", len(body.Slots))
		}
	})

	t.Run("rejects unknown region", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{})

		req := httptest.NewRequest(http.MethodGet, "/slots?region=mars", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects malformed time filter", func(t *testing.T) {
		router := newSlotTestRouter(&fakeSlotService{})

		req := httptest.NewRequest(http.MethodGet, "/slots?start_after=tomorrow", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, 5))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}
