// routes/routes.go
package routes

import (
	"time"

	"geotrack/config"
	"geotrack/controllers"
	"geotrack/database"
	"geotrack/middleware"
	"geotrack/repositories"
	"geotrack/services"
	"geotrack/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRoutes initializes all application routes
func SetupRoutes(cfg *config.Config, db *mongo.Database, redisClient *redis.Client, hub *websocket.Hub) *gin.Engine {
	router := gin.New()

	repos := initializeRepositories(db, redisClient)
	svcs := initializeServices(cfg, repos, hub)
	ctrls := initializeControllers(svcs, hub)

	setupGlobalMiddleware(router, cfg, redisClient)
	setupRoutes(router, ctrls, redisClient)

	return router
}

// Repositories initialization
type Repositories struct {
	Location   *repositories.LocationRepository
	Geofence   *repositories.GeofenceRepository
	Membership *repositories.MembershipRepository
	Event      *repositories.EventRepository
	Device     *repositories.DeviceRepository
}

func initializeRepositories(db *mongo.Database, redisClient *redis.Client) *Repositories {
	return &Repositories{
		Location:   repositories.NewLocationRepository(db),
		Geofence:   repositories.NewGeofenceRepository(db),
		Membership: repositories.NewMembershipRepository(db),
		Event:      repositories.NewEventRepository(db),
		Device:     repositories.NewDeviceRepository(db, redisClient),
	}
}

// Services initialization
type Services struct {
	Detector  *services.DetectorService
	Ingestion *services.IngestionService
	Geofence  *services.GeofenceService
	Location  *services.LocationService
}

func initializeServices(cfg *config.Config, repos *Repositories, hub *websocket.Hub) *Services {
	detector := services.NewDetectorService(repos.Geofence, repos.Membership, repos.Event, cfg.CASRetries)

	return &Services{
		Detector: detector,
		Ingestion: services.NewIngestionService(
			repos.Location,
			repos.Device,
			detector,
			hub,
			time.Duration(cfg.DependencyTimeoutSeconds)*time.Second,
		),
		Geofence: services.NewGeofenceService(repos.Geofence, repos.Membership),
		Location: services.NewLocationService(repos.Location, repos.Event, repos.Membership, repos.Device),
	}
}

// Controllers initialization
type Controllers struct {
	Location  *controllers.LocationController
	Geofence  *controllers.GeofenceController
	WebSocket *controllers.WebSocketController
}

func initializeControllers(svcs *Services, hub *websocket.Hub) *Controllers {
	return &Controllers{
		Location:  controllers.NewLocationController(svcs.Ingestion, svcs.Location),
		Geofence:  controllers.NewGeofenceController(svcs.Geofence),
		WebSocket: controllers.NewWebSocketController(hub),
	}
}

func setupGlobalMiddleware(router *gin.Engine, cfg *config.Config, redisClient *redis.Client) {
	errorHandler := middleware.NewErrorHandler(cfg.Environment, logrus.StandardLogger())

	router.Use(errorHandler.Handle())
	router.Use(middleware.LoggerMiddleware(middleware.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Redis:     redisClient,
		Requests:  cfg.RateLimitRequests,
		Window:    time.Duration(cfg.RateLimitWindowMinutes) * time.Minute,
		SkipPaths: []string{"/health", "/ws"},
	})
	router.Use(rateLimiter.Middleware())
}

func setupRoutes(router *gin.Engine, ctrls *Controllers, redisClient *redis.Client) {
	router.GET("/health", healthHandler(redisClient))

	v1 := router.Group("/api/v1")
	{
		devices := v1.Group("/devices/:deviceId")
		{
			devices.POST("/locations", ctrls.Location.IngestLocation)
			devices.POST("/locations/sync", ctrls.Location.SyncLocations)
			devices.GET("/locations/current", ctrls.Location.GetCurrentLocation)
			devices.GET("/locations/history", ctrls.Location.GetLocationHistory)
			devices.GET("/events", ctrls.Location.GetDeviceEvents)
			devices.GET("/memberships/:geofenceId", ctrls.Location.GetMembership)
			devices.GET("/last-seen", ctrls.Location.GetDeviceLastSeen)
		}

		geofences := v1.Group("/geofences")
		{
			geofences.POST("", ctrls.Geofence.CreateGeofence)
			geofences.GET("", ctrls.Geofence.ListGeofences)
			geofences.GET("/:id", ctrls.Geofence.GetGeofence)
			geofences.PUT("/:id", ctrls.Geofence.UpdateGeofence)
			geofences.DELETE("/:id", ctrls.Geofence.DeleteGeofence)
			geofences.GET("/:id/occupancy", ctrls.Geofence.GetGeofenceOccupancy)
		}

		v1.GET("/ws/stats", ctrls.WebSocket.GetStats)
	}

	router.GET("/ws", ctrls.WebSocket.HandleConnection)
}

func healthHandler(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		services := map[string]string{
			"mongodb": "healthy",
			"redis":   "healthy",
		}
		status := 200

		if !database.IsConnected() {
			services["mongodb"] = "unhealthy"
			status = 503
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			services["redis"] = "unhealthy"
			status = 503
		}

		overall := "ok"
		if status != 200 {
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"services":  services,
			"timestamp": time.Now(),
		})
	}
}
