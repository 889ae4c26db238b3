package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"interview-scheduler/internal/app"
	"interview-scheduler/internal/config"
	"interview-scheduler/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	store := app.NewPGStore(pool)
	calendarSvc := app.NewCalendarService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, store, logger)
	if calendarSvc == nil {
		logger.Warn("google calendar integration disabled, oauth credentials not set")
	}

	appInstance := &app.App{
		Store:      store,
		Calendar:   calendarSvc,
		Log:        logger,
		DefaultOrg: cfg.OrgID,
		HoldTTL:    cfg.PendingHoldTTL,
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// OAuth2 callback (must be reachable without auth)
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)

	// public booking surface: the pages applicants hit carry no bearer token
	public := router.Group("/api/public")
	{
		public.GET("/:id/profile", appInstance.GetProfileHandler)
		public.GET("/:id/event-types/:slug", appInstance.GetEventTypeBySlugHandler)
		public.GET("/:id/slots", appInstance.GetSlotsHandler)
		public.POST("/:id/bookings", appInstance.CreateBookingHandler)
		public.GET("/:id/bookings/active", appInstance.ActiveBookingHandler)
		public.DELETE("/bookings/:id", appInstance.CancelBookingHandler)
	}

	api := router.Group("/api")
	api.Use(app.AuthMiddleware(cfg.StaticTokens, cfg.JWTSecret))
	{
		users := api.Group("/users")
		{
			users.PUT("/:id/profile", appInstance.UpsertProfileHandler)

			users.POST("/:id/availability", appInstance.SetAvailabilityHandler)
			users.GET("/:id/availability", appInstance.ListAvailabilityHandler)
			users.DELETE("/:id/availability", appInstance.ClearDayHandler)
			users.PUT("/:id/availability/:window_id", appInstance.UpdateAvailabilityHandler)
			users.DELETE("/:id/availability/:window_id", appInstance.DeleteAvailabilityHandler)

			users.POST("/:id/event-types", appInstance.CreateEventTypeHandler)
			users.GET("/:id/event-types", appInstance.ListEventTypesHandler)
			users.PUT("/:id/event-types/:etype_id", appInstance.UpdateEventTypeHandler)
			users.DELETE("/:id/event-types/:etype_id", appInstance.DeleteEventTypeHandler)

			users.GET("/:id/bookings", appInstance.ListBookingsHandler)
		}
		api.DELETE("/bookings/:id", appInstance.CancelBookingHandler)
		api.POST("/bookings/:id/sync", appInstance.SyncBookingHandler)
		api.GET("/calendar/auth", appInstance.GoogleAuthHandler)
	}

	logger.Info("starting server", "port", cfg.Port, "org", cfg.OrgID)
	server.Run(router, cfg.Port)
}
