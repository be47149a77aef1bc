package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizplan/internal/api/middleware"
	"bizplan/internal/auth"
	"bizplan/internal/config"
	"bizplan/internal/storage"
)

// RegisterRoutes wires every handler under /v1 plus the worker-only
// internal print route.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	documentHandler := NewDocumentHandler(db, asynqClient, storageClient)
	financeHandler := NewFinanceHandler(db)
	evaluationHandler := NewEvaluationHandler(db, asynqClient, storageClient, logger)
	templateHandler := NewTemplateHandler(db)
	authHandler := NewAuthHandler(
		db,
		authService,
		redisClient,
		logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		cfg.Auth.LoginLockTTL,
		cfg.API.CookieDomain,
	)
	assetHandler := NewAssetHandler(db, storageClient, logger, cfg.Clamd.Addr)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOriginList())
	printHandler := NewPrintHandler(db, logger)
	authMiddleware := middleware.AuthMiddleware(authService)

	internal := router.Group("/internal")
	internal.Use(middleware.InternalSecretMiddleware(cfg.Worker.InternalSecret))
	{
		internal.GET("/print/documents/:id", printHandler.GetDocumentPrintData)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		// The by-kind lookup lives outside /documents because gin rejects a
		// static segment next to the :id wildcard.
		v1.GET("/document-kinds/:kind", authMiddleware, documentHandler.GetOrCreateByKind)

		docGroup := v1.Group("/documents")
		docGroup.Use(authMiddleware)
		{
			docGroup.GET("", documentHandler.ListDocuments)
			docGroup.PATCH("/:id/content", documentHandler.MergeContent)
			docGroup.DELETE("/:id", documentHandler.DeleteDocument)
			docGroup.POST("/:id/export", documentHandler.ExportDocument)
			docGroup.GET("/:id/export-link", documentHandler.GetExportLink)

			docGroup.GET("/:id/finance", financeHandler.GetFinance)
			docGroup.POST("/:id/finance/produits", financeHandler.AppendProduit)
			docGroup.POST("/:id/finance/capital/:categorie", financeHandler.AppendCapital)
			docGroup.PUT("/:id/finance/collections/:collection", financeHandler.PutCollection)

			docGroup.POST("/:id/evaluation", evaluationHandler.SubmitEvaluation)
			docGroup.GET("/:id/evaluation", evaluationHandler.GetEvaluation)

			docGroup.PUT("/:id/template", templateHandler.BindTemplate)
		}

		templateGroup := v1.Group("/templates")
		templateGroup.Use(authMiddleware)
		{
			templateGroup.POST("", templateHandler.CreateTemplate)
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("", assetHandler.DeleteAsset)
		}
	}
}
