package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/oiyahen/scrim-scheduler/handlers"
	"github.com/oiyahen/scrim-scheduler/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	slotHandler *handlers.SlotHandler,
	inviteHandler *handlers.InviteHandler,
	notificationHandler *handlers.NotificationHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	// Публичные маршруты
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", userHandler.GetProfile)
		r.Patch("/me", userHandler.UpdateProfile)
	})

	router.Route("/teams", func(r chi.Router) {
		// Публичные маршруты для просмотра команд
		r.Get("/{teamID}", teamHandler.GetTeamByID)
		r.Get("/{teamID}/members", teamHandler.ListTeamMembers)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", teamHandler.CreateTeam)
			r.Patch("/{teamID}", teamHandler.UpdateTeamDetails)
			r.Delete("/{teamID}", teamHandler.DisbandTeam)
			r.Post("/{teamID}/logo", teamHandler.UploadLogo)
			r.Delete("/{teamID}/members/{userID}", teamHandler.RemoveMember)

			r.Post("/{teamID}/invites", inviteHandler.CreateInviteHandler)
			r.Get("/{teamID}/invites", inviteHandler.ListTeamInvitesHandler)

			r.Get("/{teamID}/slots", slotHandler.ListTeamSlots)
			r.Get("/{teamID}/dashboard", dashboardHandler.TeamStats)
		})
	})

	router.Route("/invites", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/accept", inviteHandler.AcceptInviteHandler)
		r.Delete("/{inviteID}", inviteHandler.RevokeInviteHandler)
	})

	router.Route("/slots", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", slotHandler.CreateSlot)
		r.Get("/", slotHandler.BrowseSlots)
		r.Get("/{slotID}", slotHandler.GetSlotByID)
		r.Post("/{slotID}/publish", slotHandler.PublishSlot)
		r.Post("/{slotID}/accept", slotHandler.AcceptSlot)
		r.Post("/{slotID}/cancel", slotHandler.CancelSlot)
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", notificationHandler.ListNotifications)
		r.Post("/{notificationID}/read", notificationHandler.MarkNotificationRead)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/teams/{teamID}", webSocketHandler.ServeWs)
	})
}
