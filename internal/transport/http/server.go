package http

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "travel-journal/internal/app"
	"travel-journal/internal/bootstrap"
	"travel-journal/internal/media"
	"travel-journal/internal/repository"
	"travel-journal/internal/transport/http/handler"
	"travel-journal/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogging(app.Logger),
		middleware.Recovery(app.Logger),
		cors.New(corsConfig(cfg.CORS.AllowedOrigins)),
	)

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	if fs, ok := app.MediaStore.(*media.FileSystemStore); ok {
		router.Static(cfg.Media.PublicPrefix, fs.Root())
	}

	userRepo := repository.NewUserRepository(app.DB)
	entryRepo := repository.NewEntryRepository(app.DB)

	var entryCache appsvc.EntryCache
	if app.EntryCache != nil {
		entryCache = app.EntryCache
	}

	authService := appsvc.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.JWTExpiration())
	entryService := appsvc.NewEntryService(entryRepo, app.MediaPolicy, app.MediaCleaner, entryCache, app.Logger)
	profileService := appsvc.NewProfileService(userRepo, app.MediaPolicy, app.MediaCleaner, app.Logger)

	authHandler := handler.NewAuthHandler(authService, app.Logger)
	entryHandler := handler.NewEntryHandler(entryService, cfg.Media.EntryMaxBytes, cfg.Media.EntryMaxFiles, app.Logger)
	userHandler := handler.NewUserHandler(profileService, cfg.Media.ProfileMaxBytes, app.Logger)
	requireAuth := middleware.AuthJWT(authService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	entryGroup := v1.Group("/entries")
	entryGroup.GET("", entryHandler.List)
	entryGroup.GET("/liked", requireAuth, entryHandler.Liked)
	entryGroup.GET("/:id", entryHandler.Get)
	entryGroup.POST("", requireAuth, entryHandler.Create)
	entryGroup.PUT("/:id/like", requireAuth, entryHandler.ToggleLike)
	entryGroup.DELETE("/:id", requireAuth, entryHandler.Delete)

	userGroup := v1.Group("/users")
	userGroup.PUT("/profile/picture", requireAuth, userHandler.UpdateProfilePicture)

	return router
}

// corsConfig allows credentials for an explicit origin list. An empty list or
// "*" opens the API to every origin without credentials.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
