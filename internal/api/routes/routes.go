// internal/api/routes/routes.go
package routes

import (
	"net/http"
	"time"

	"field-service-api/config"
	"field-service-api/internal/api/handlers"
	"field-service-api/internal/api/middleware"
	"field-service-api/internal/auth"
	"field-service-api/internal/socket"
	"field-service-api/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the components the router wires into the handlers.
type Dependencies struct {
	Config config.Config
	Stores *store.Stores
	Hub    *socket.Hub
	// Tokens may be nil when auth is disabled.
	Tokens *auth.TokenManager
	// Exporter is nil when S3 is not configured.
	Exporter handlers.Exporter
	Log      *zap.Logger
}

// SetupRouter builds the gin engine with every /api route.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(deps.Log))
	router.Use(cors.New(corsConfig(deps.Config.CORS)))

	base := handlers.Base{Store: deps.Stores, Log: deps.Log}
	if deps.Hub != nil {
		base.Events = deps.Hub
	}

	technicianHandler := &handlers.TechnicianHandler{Base: base}
	teamHandler := &handlers.TeamHandler{Base: base}
	serviceOrderHandler := &handlers.ServiceOrderHandler{Base: base}
	reportHandler := &handlers.ReportHandler{Base: base, Exporter: deps.Exporter}
	cityHandler := &handlers.CityHandler{Base: base}
	neighborhoodHandler := &handlers.NeighborhoodHandler{Base: base}
	serviceTypeHandler := &handlers.ServiceTypeHandler{Base: base}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	var tokens *auth.TokenManager
	if deps.Config.Auth.Enabled {
		tokens = deps.Tokens
		authHandler := &handlers.AuthHandler{Base: base, Tokens: tokens}
		limiter := middleware.NewRateLimiter(deps.Config.Auth.LoginRPS, deps.Config.Auth.LoginBurst)
		api.POST("/auth/login", middleware.RateLimit(limiter), authHandler.Login)
	}

	if deps.Hub != nil {
		webSocketHandler := &handlers.WebSocketHandler{Hub: deps.Hub, Tokens: tokens, Log: deps.Log}
		api.GET("/ws", webSocketHandler.ServeWs)
	}

	protected := api.Group("/")
	// admin guards writes to reference data.
	admin := func(h gin.HandlerFunc) gin.HandlersChain { return gin.HandlersChain{h} }
	if tokens != nil {
		protected.Use(middleware.Authenticate(tokens))
		authorize := middleware.Authorize(auth.RoleAdmin)
		admin = func(h gin.HandlerFunc) gin.HandlersChain { return gin.HandlersChain{authorize, h} }
	}
	{
		technicians := protected.Group("/technicians")
		{
			technicians.GET("", technicianHandler.GetAllTechnicians)
			technicians.POST("", technicianHandler.CreateTechnician)
			technicians.GET("/:id", technicianHandler.GetTechnicianByID)
			technicians.PUT("/:id", technicianHandler.UpdateTechnician)
			technicians.DELETE("/:id", technicianHandler.DeleteTechnician)
		}

		teams := protected.Group("/teams")
		{
			teams.GET("", teamHandler.GetAllTeams)
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("/:id", teamHandler.GetTeamByID)
			teams.PUT("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
			teams.GET("/:id/service-orders", teamHandler.GetTeamServiceOrders)
		}

		orders := protected.Group("/service-orders")
		{
			orders.GET("", serviceOrderHandler.GetAllServiceOrders)
			orders.POST("", serviceOrderHandler.CreateServiceOrder)
			orders.GET("/search", serviceOrderHandler.SearchServiceOrder)
			orders.GET("/alerts", serviceOrderHandler.GetAlerts)
			orders.GET("/calendar", serviceOrderHandler.GetCalendar)
			orders.POST("/reallocate", serviceOrderHandler.Reallocate)
			orders.GET("/:id", serviceOrderHandler.GetServiceOrderByID)
			orders.PUT("/:id", serviceOrderHandler.UpdateServiceOrder)
			orders.PATCH("/:id/status", serviceOrderHandler.UpdateServiceOrderStatus)
			orders.DELETE("/:id", serviceOrderHandler.DeleteServiceOrder)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("", reportHandler.GetAllReports)
			reports.POST("", reportHandler.CreateReport)
			reports.POST("/generate", reportHandler.GenerateReport)
			reports.GET("/:id", reportHandler.GetReportByID)
			reports.PUT("/:id", reportHandler.UpdateReport)
			reports.DELETE("/:id", reportHandler.DeleteReport)
			reports.POST("/:id/export", reportHandler.ExportReport)
		}

		cities := protected.Group("/cities")
		{
			cities.GET("", cityHandler.GetAllCities)
			cities.POST("", admin(cityHandler.CreateCity)...)
			cities.GET("/:id", cityHandler.GetCityByID)
			cities.PUT("/:id", admin(cityHandler.UpdateCity)...)
			cities.DELETE("/:id", admin(cityHandler.DeleteCity)...)
			cities.GET("/:id/neighborhoods", cityHandler.GetCityNeighborhoods)
		}

		neighborhoods := protected.Group("/neighborhoods")
		{
			neighborhoods.GET("", neighborhoodHandler.GetAllNeighborhoods)
			neighborhoods.POST("", admin(neighborhoodHandler.CreateNeighborhood)...)
			neighborhoods.GET("/:id", neighborhoodHandler.GetNeighborhoodByID)
			neighborhoods.PUT("/:id", admin(neighborhoodHandler.UpdateNeighborhood)...)
			neighborhoods.DELETE("/:id", admin(neighborhoodHandler.DeleteNeighborhood)...)
		}

		serviceTypes := protected.Group("/service-types")
		{
			serviceTypes.GET("", serviceTypeHandler.GetAllServiceTypes)
			serviceTypes.POST("", admin(serviceTypeHandler.CreateServiceType)...)
			serviceTypes.GET("/:id", serviceTypeHandler.GetServiceTypeByID)
			serviceTypes.PUT("/:id", admin(serviceTypeHandler.UpdateServiceType)...)
			serviceTypes.DELETE("/:id", admin(serviceTypeHandler.DeleteServiceType)...)
		}
	}

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}
	return c
}
