package router

import (
	"github.com/gin-gonic/gin"

	"game-gen-ai-api/internal/interfaces/http/handler"
)

// RegisterGenerateRoutes 注册调用模型的生成路由，limit 只作用于这些路由
func RegisterGenerateRoutes(g *gin.RouterGroup, activityHandler *handler.ActivityHandler, limit gin.HandlerFunc) {
	gen := g.Group("/generate")
	{
		gen.POST("", limit, activityHandler.Generate)
		gen.POST("/debug", limit, activityHandler.GenerateDebug)
		gen.GET("/test", activityHandler.Sample)
	}
	g.GET("/stats", activityHandler.Stats)
}

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, activityHandler *handler.ActivityHandler) {
	activities := v1.Group("/activities")
	{
		activities.GET("", activityHandler.ListActivities)
		activities.POST("/parse", activityHandler.Parse)
		activities.GET("/:id", activityHandler.GetActivity)
	}
}
