package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timetrack/backend/internal/handler"
	"timetrack/backend/internal/middleware"
	"timetrack/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	activityHandler *handler.ActivityHandler,
	pomodoroHandler *handler.PomodoroHandler,
	analyticsHandler *handler.AnalyticsHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))

	activities := authed.Group("/activities")
	activities.POST("/start", activityHandler.Start)
	activities.POST("/stop", activityHandler.Stop)
	activities.GET("", activityHandler.List)
	activities.GET("/current", activityHandler.Current)
	activities.PATCH("/:id", activityHandler.Update)
	activities.DELETE("/:id", activityHandler.Delete)

	pomodoro := authed.Group("/pomodoro")
	pomodoro.GET("", pomodoroHandler.GetState)
	pomodoro.POST("/start", pomodoroHandler.Start)
	pomodoro.POST("/pause", pomodoroHandler.Pause)
	pomodoro.POST("/reset", pomodoroHandler.Reset)

	authed.GET("/analytics", analyticsHandler.Get)

	return engine
}
