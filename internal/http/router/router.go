package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/arbitration-backend/internal/config"
	"github.com/ignatzorin/arbitration-backend/internal/http/handlers"
	"github.com/ignatzorin/arbitration-backend/internal/http/middleware"
	"github.com/ignatzorin/arbitration-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	caseHandler *handlers.CaseHandler,
	verdictHandler *handlers.VerdictHandler,
	consensusHandler *handlers.ConsensusHandler,
	voterHandler *handlers.VoterHandler,
	ledgerHandler *handlers.LedgerHandler,
	evidenceHandler *handlers.EvidenceHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Дела
		protected.POST("/cases", caseHandler.OpenCase)
		protected.GET("/cases", caseHandler.ListMyCases)
		protected.GET("/cases/:id", middleware.UUIDValidator("id"), caseHandler.GetCase)
		protected.POST("/cases/:id/release", middleware.UUIDValidator("id"), caseHandler.Release)
		protected.POST("/cases/:id/dispute", middleware.UUIDValidator("id"), caseHandler.RaiseDispute)

		// Автоматический вердикт
		protected.POST("/cases/:id/verdict", middleware.UUIDValidator("id"), verdictHandler.Submit)
		protected.POST("/cases/:id/verdict/accept", middleware.UUIDValidator("id"), verdictHandler.Accept)
		protected.POST("/cases/:id/verdict/reject", middleware.UUIDValidator("id"), verdictHandler.Reject)
		protected.POST("/cases/:id/verdict/check-deadline", middleware.UUIDValidator("id"), verdictHandler.CheckDeadline)

		// Сессии голосования
		protected.POST("/cases/:id/session", middleware.UUIDValidator("id"), consensusHandler.StartSession)
		protected.GET("/cases/:id/session", middleware.UUIDValidator("id"), consensusHandler.GetSession)
		protected.POST("/cases/:id/session/votes", middleware.UUIDValidator("id"), consensusHandler.CastVote)
		protected.GET("/cases/:id/session/votes", middleware.UUIDValidator("id"), consensusHandler.ListVotes)
		protected.GET("/cases/:id/session/votes/my", middleware.UUIDValidator("id"), consensusHandler.MyVote)
		protected.POST("/cases/:id/session/finalize", middleware.UUIDValidator("id"), consensusHandler.Finalize)

		// Доказательства
		protected.POST("/cases/:id/evidence", middleware.UUIDValidator("id"), evidenceHandler.Attach)
		protected.GET("/cases/:id/evidence", middleware.UUIDValidator("id"), evidenceHandler.List)
		protected.GET("/evidence/:id", middleware.UUIDValidator("id"), evidenceHandler.Download)

		// Реестр арбитров
		protected.GET("/voters/:id", middleware.UUIDValidator("id"), voterHandler.GetVoter)
		protected.POST("/voters/:id", middleware.UUIDValidator("id"), voterHandler.RegisterVoter)
		protected.DELETE("/voters/:id", middleware.UUIDValidator("id"), voterHandler.RemoveVoter)
		protected.POST("/voters/:id/ban", middleware.UUIDValidator("id"), voterHandler.BanVoter)
		protected.PUT("/voters/:id/karma", middleware.UUIDValidator("id"), voterHandler.AdjustKarma)

		// Кошелёк
		protected.GET("/wallet/balance", ledgerHandler.GetBalance)
		protected.POST("/wallet/topup", ledgerHandler.TopUp)
		protected.GET("/wallet/transactions", ledgerHandler.ListTransactions)
	}

	return r
}
