package router

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/habitboard/internal/handler"
	"github.com/habitboard/internal/service"
)

const requestIDHeader = "X-Request-ID"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()
	r.Use(requestID())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 60 * 60, HttpOnly: true})
	r.Use(sessions.Sessions("habitboard_session", store))

	r.GET("/healthz", api.HealthCheck)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/login", api.Login)
		apiGroup.POST("/logout", api.Logout)

		// 需要认证的路由
		auth := apiGroup.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/analytics", api.GetHabitAnalytics)
			auth.GET("/heatmap", api.GetHabitHeatmap)
			auth.GET("/streaks/:type", api.GetHabitStreak)
			auth.GET("/days/:date", api.GetHabitDay)

			auth.PUT("/logs/problems", api.UpsertProblemLog)
			auth.PUT("/logs/attendance", api.UpsertAttendanceLog)
			auth.PUT("/logs/mood", api.UpsertMoodLog)
			auth.DELETE("/logs/:type/:date", api.DeleteHabitLog)

			auth.GET("/policies", api.ListStreakPolicies)
			auth.PUT("/policies/:type", api.UpdateStreakPolicy)
		}
	}

	return r
}

// requestID 为每个请求附加 X-Request-ID，沿用客户端传入的值
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
