package router

import (
	"github.com/blues/prs/internal/handler"
	"github.com/blues/prs/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(proposalLogic *logic.ProposalLogic) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "proposal-registry-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 提案相关路由
		proposalHandler := handler.NewProposalHandler(proposalLogic)
		proposals := v1.Group("/proposals")
		{
			proposals.POST("", proposalHandler.CreateProposal)
			proposals.GET("", proposalHandler.GetProposals)
			proposals.GET("/:id", proposalHandler.GetProposal)
			proposals.GET("/:id/status", proposalHandler.GetStatus)
			proposals.PUT("/:id/status", proposalHandler.UpdateStatus)
			proposals.GET("/:id/votes", proposalHandler.GetVoteCounts)
			proposals.POST("/:id/votes", proposalHandler.AddVote)
			proposals.PUT("/:id/metadata", proposalHandler.UpdateMetadata)
			proposals.GET("/:id/active", proposalHandler.IsActive)
		}

		// 内容指纹查询
		v1.GET("/fingerprints/:hash", proposalHandler.GetProposalByHash)

		// 账本全局状态路由
		registryHandler := handler.NewRegistryHandler(proposalLogic)
		registry := v1.Group("/registry")
		{
			registry.GET("/next-id", registryHandler.GetNextId)
			registry.GET("/admin", registryHandler.GetAdmin)
			registry.PUT("/admin", registryHandler.SetAdmin)
			registry.GET("/stats", registryHandler.GetStats)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Caller-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
