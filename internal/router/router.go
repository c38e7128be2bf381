package router

import (
	"tripsync/config"
	"tripsync/internal/handler"
	"tripsync/internal/middleware"
	"tripsync/internal/repository"
	"tripsync/internal/service"
	"tripsync/internal/ws"
	"tripsync/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cache *redis.Client, cloud cloudinary.Client, hub *ws.PresenceHub) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitWindow)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tripRepo := repository.NewTripRepository(db)
	itineraryRepo := repository.NewItineraryRepository(db)
	focusRepo := repository.NewFocusSessionRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	focusSvc := service.NewFocusService(&cfg.Focus, focusRepo, tripRepo, hub, cache, auditRepo)
	surveySvc := service.NewSurveyService(surveyRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, auditRepo)
	meHandler := handler.NewMeHandler(userRepo, cloud)
	tripHandler := handler.NewTripHandler(tripRepo, userRepo, auditRepo)
	itineraryHandler := handler.NewItineraryHandler(itineraryRepo, tripRepo)
	focusHandler := handler.NewFocusHandler(focusSvc)
	presenceHandler := handler.NewPresenceHandler(hub, tripRepo)
	surveyHandler := handler.NewSurveyHandler(surveySvc, surveyRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.PATCH("/profile", meHandler.UpdateProfile)
			me.POST("/avatar", meHandler.UploadAvatar)
		}

		trips := api.Group("/trips")
		trips.Use(authMw)
		{
			trips.POST("", tripHandler.Create)
			trips.GET("", tripHandler.ListMine)
			trips.GET("/:trip_id", tripHandler.Get)
			trips.POST("/:trip_id/members", tripHandler.AddMember)
			trips.PATCH("/:trip_id/members/:user_id", tripHandler.UpdateMemberRole)

			trips.GET("/:trip_id/sections", itineraryHandler.ListSections)
			trips.POST("/:trip_id/sections", itineraryHandler.CreateSection)
			trips.POST("/:trip_id/sections/:section_id/items", itineraryHandler.CreateItem)

			trips.GET("/:trip_id/focus", focusHandler.GetActive)
			trips.POST("/:trip_id/focus", focusHandler.Start)
			trips.PATCH("/:trip_id/focus", focusHandler.End)

			trips.GET("/:trip_id/presence", presenceHandler.List)
		}

		research := api.Group("/research")
		{
			research.GET("/forms/:form_id", surveyHandler.GetForm)
			research.POST("/responses", surveyHandler.SubmitResponses)
			research.POST("/events", surveyHandler.TrackEvent)
		}
	}

	r.GET("/ws/presence", ws.UpgradePresenceWS(&cfg.JWT, &cfg.Presence, hub, tripRepo, userRepo))

	return r
}
