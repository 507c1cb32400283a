package router

import (
	"net/http"

	"corretor/config"
	"corretor/controllers"
	dbpkg "corretor/db"
	"corretor/logging"
	"corretor/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Initialize wires all routes and middlewares.
// Public routes + n8n routes (x-api-key) + session routes + admin routes.
func Initialize(r *gin.Engine, cfg config.Configuration, database *gorm.DB) {
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestTracker())
	r.Use(middleware.CORSMiddleware(cfg.CorsOrigins))
	r.Use(dbpkg.SetDBtoContext(database))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		if err := database.DB().PingContext(c.Request.Context()); err != nil {
			controllers.RespondError(c, "db indisponível", http.StatusServiceUnavailable)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Public (no auth)
	api.POST("/register", Logger(), controllers.Register)
	api.POST("/login", Logger(), controllers.Login)
	api.POST("/logout", Logger(), controllers.Logout)

	// n8n (x-api-key)
	bot := api.Group("")
	bot.Use(APIKeyAuthorizer())
	bot.GET("/leads/uncontacted", Logger(), controllers.GetUncontactedLeads)
	bot.GET("/automations/post-sales", Logger(), controllers.GetPostSalesLeads)
	bot.GET("/users/by-phone/:phone", Logger(), controllers.GetUserByPhone)
	bot.POST("/agendamentos", Logger(), controllers.CreateAgendamento)
	bot.GET("/availability/free", Logger(), controllers.GetFreeAvailability)

	// Upsert: painel ou n8n
	api.POST("/leads", SessionOrAPIKey(), Logger(), controllers.CreateOrUpdateLead)

	// Authenticated routes (session required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	auth.GET("/me", Logger(), controllers.Me)

	// Leads
	auth.GET("/leads", Logger(), controllers.GetLeads)
	auth.GET("/leads/kanban", Logger(), controllers.GetKanban)
	auth.GET("/leads/kanban/:status", Logger(), controllers.GetKanbanColumn)
	auth.POST("/leads/bulk", Logger(), controllers.BulkCreateLeads)
	auth.POST("/leads/import", Logger(), controllers.ImportLeadsSpreadsheet)
	auth.GET("/leads/:id", Logger(), controllers.GetLeadByID)
	auth.PUT("/leads/:id", Logger(), controllers.UpdateLead)
	auth.PATCH("/leads/:id/status", Logger(), controllers.UpdateLeadStatus)
	auth.DELETE("/leads/:id", Logger(), controllers.DeleteLead)

	// Attachments
	auth.POST("/leads/:id/attachments", Logger(), controllers.CreateAttachment)
	auth.POST("/leads/:id/attachments/upload", Logger(), controllers.UploadAttachment)
	auth.DELETE("/attachments/:id", Logger(), controllers.DeleteAttachment)
	auth.POST("/upload", Logger(), controllers.PresignUpload)

	// Agenda
	auth.GET("/agendamentos", Logger(), controllers.GetAgendamentos)
	auth.PATCH("/agendamentos/:id/cancel", Logger(), controllers.CancelAgendamento)
	auth.GET("/availability", Logger(), controllers.GetAvailability)
	auth.POST("/availability", Logger(), controllers.CreateAvailability)
	auth.DELETE("/availability", Logger(), controllers.DeleteAvailability)
	auth.DELETE("/availability/:id", Logger(), controllers.DeleteAvailability)

	// Products
	auth.GET("/products", Logger(), controllers.GetProducts)
	auth.POST("/products", Logger(), controllers.CreateProduct)
	auth.PUT("/products/:id", Logger(), controllers.UpdateProduct)
	auth.DELETE("/products/:id", Logger(), controllers.DeleteProduct)

	// Properties
	auth.GET("/properties", Logger(), controllers.GetProperties)
	auth.GET("/properties/:id", Logger(), controllers.GetPropertyByID)
	auth.POST("/properties", Logger(), controllers.CreateProperty)
	auth.PUT("/properties/:id", Logger(), controllers.UpdateProperty)
	auth.DELETE("/properties/:id", Logger(), controllers.DeleteProperty)

	// Settings
	auth.PUT("/settings/profile", Logger(), controllers.UpdateProfile)
	auth.PUT("/settings/password", Logger(), controllers.UpdatePassword)
	auth.PUT("/settings/bot", Logger(), controllers.UpdateBotSettings)

	// Dashboard
	auth.GET("/dashboard/overview", Logger(), controllers.GetDashboardOverview)
	auth.GET("/dashboard/leads-per-day", Logger(), controllers.GetLeadsPerDay)

	// Admin routes
	admin := auth.Group("/admin")
	admin.Use(Adminizer())
	admin.GET("/stats", Logger(), controllers.GetAdminStats)
	admin.GET("/leads", Logger(), controllers.GetAdminLeads)
	admin.GET("/users", Logger(), controllers.GetAdminUsers)
	admin.PUT("/users/:id/password", Logger(), controllers.AdminChangeUserPassword)

	logging.L().Info("routes initialized")
}
