package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-booking-server/internal/config"
	"clinic-booking-server/internal/handlers"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/notify"
	"clinic-booking-server/internal/store"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, events *notify.Broadcaster, cfg *config.Config) {
	// Stores own all database access; handlers stay at the boundary.
	users := store.NewUserStore(db)
	appointments := store.NewAppointmentStore(db, events)

	authHandler := handlers.NewAuthHandler(db, users, cfg)
	doctorHandler := handlers.NewDoctorHandler(users, appointments)
	appointmentHandler := handlers.NewAppointmentHandler(appointments)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Doctor directory and schedules
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("/branches", doctorHandler.GetBranches)
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id/slots", doctorHandler.GetDoctorSlots)

			doctorRoutes.PUT("/me/working-hours",
				middleware.RoleAuthMiddleware(models.RoleDoctor), doctorHandler.UpdateWorkingHours)
		}

		// Doctor-side patient search
		private.GET("/patients",
			middleware.RoleAuthMiddleware(models.RoleDoctor), doctorHandler.SearchPatients)

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			// Patients book for themselves; the patient id comes from the token
			appointmentRoutes.POST("",
				middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.Create)

			// Role-dependent listing: patient history or doctor week view
			appointmentRoutes.GET("", appointmentHandler.List)

			// Patient history between two dates
			appointmentRoutes.GET("/range",
				middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.ListRange)

			appointmentRoutes.DELETE("/:id",
				middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.Cancel)
			appointmentRoutes.PATCH("/:id/reschedule",
				middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.Reschedule)

			appointmentRoutes.PATCH("/:id/state",
				middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.SetState)
			appointmentRoutes.PUT("/:id/exam",
				middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.SaveExam)
			appointmentRoutes.GET("/:id/exam",
				middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.GetExam)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
