package api

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services are the dependencies of the HTTP layer.
type Services struct {
	Auth        service.AuthService
	Checkout    service.CheckoutService
	Programs    service.ProgramService
	Assignments service.AssignmentService
	Clients     service.ClientService
	Library     service.LibraryService
	Media       service.MediaService
}

func SetupRoutes(router *gin.Engine, services Services) {
	authHandler := NewAuthHandler(services.Auth)
	checkoutHandler := NewCheckoutHandler(services.Checkout)
	programHandler := NewProgramHandler(services.Programs)
	assignmentHandler := NewAssignmentHandler(services.Assignments)
	clientHandler := NewClientHandler(services.Clients)
	libraryHandler := NewLibraryHandler(services.Library)
	mediaHandler := NewMediaHandler(services.Media)

	authMiddleware := AuthMiddleware(services.Auth)
	coachOnly := RoleMiddleware(domain.RoleCoach)
	customerOnly := RoleMiddleware(domain.RoleCustomer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Called by the payment gateway, authenticated by signature.
		apiGroup.POST("/checkout/webhook", checkoutHandler.Webhook)
	}

	protected := apiGroup.Group("")
	protected.Use(authMiddleware)
	{
		meGroup := protected.Group("/me")
		{
			meGroup.GET("", authHandler.Me)
			meGroup.POST("/onboarding", authHandler.CompleteOnboarding)
			meGroup.GET("/status", customerOnly, clientHandler.MyStatus)
			meGroup.GET("/assignment", customerOnly, assignmentHandler.MyAssignment)
			meGroup.GET("/assignments", customerOnly, assignmentHandler.MyAssignments)
			meGroup.POST("/checkins", customerOnly, clientHandler.SubmitCheckIn)
		}

		protected.POST("/checkout", customerOnly, checkoutHandler.Checkout)

		// --- Programs ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", coachOnly, programHandler.CreateProgram)
			programGroup.GET("", coachOnly, programHandler.ListPrograms)
			// Owner coach or a client the program was assigned to.
			programGroup.GET("/:id", programHandler.GetProgram)
			programGroup.PATCH("/:id", coachOnly, programHandler.SaveProgram)
			programGroup.POST("/:id/publish", coachOnly, programHandler.PublishProgram)
			programGroup.POST("/:id/archive", coachOnly, programHandler.ArchiveProgram)
			programGroup.POST("/:id/fork", coachOnly, programHandler.ForkProgram)

			weeks := programGroup.Group("/:id/weeks", coachOnly)
			{
				weeks.POST("", programHandler.AddWeek)
				weeks.DELETE("/:weekId", programHandler.RemoveWeek)
				weeks.POST("/:weekId/duplicate", programHandler.DuplicateWeek)
				weeks.POST("/:weekId/days", programHandler.AddDay)
				weeks.PATCH("/:weekId/days/:dayId", programHandler.RenameDay)
				weeks.DELETE("/:weekId/days/:dayId", programHandler.RemoveDay)

				blocks := weeks.Group("/:weekId/days/:dayId/blocks")
				blocks.POST("", programHandler.AddBlock)
				blocks.PATCH("/:blockId", programHandler.UpdateBlock)
				blocks.POST("/:blockId/move", programHandler.MoveBlock)
				blocks.DELETE("/:blockId", programHandler.RemoveBlock)
			}
		}

		// --- Assignments ---
		assignmentGroup := protected.Group("/assignments", coachOnly)
		{
			assignmentGroup.POST("", assignmentHandler.AssignProgram)
			assignmentGroup.POST("/:id/complete", assignmentHandler.MarkComplete)
			assignmentGroup.POST("/:id/expire", assignmentHandler.Expire)
		}

		// --- Coach Specific Routes ---
		coachGroup := protected.Group("/coach", coachOnly)
		{
			coachGroup.GET("/clients", clientHandler.ListClients)
			coachGroup.GET("/requests", clientHandler.ListPendingRequests)
			coachGroup.POST("/requests/:id/seen", clientHandler.MarkRequestSeen)
			coachGroup.GET("/checkins", clientHandler.ListPendingCheckIns)
			coachGroup.POST("/checkins/:id/respond", clientHandler.RespondToCheckIn)
		}

		libraryGroup := protected.Group("/library", coachOnly)
		{
			libraryGroup.POST("", libraryHandler.CreateItem)
			libraryGroup.GET("", libraryHandler.ListItems)
			libraryGroup.GET("/:id", libraryHandler.GetItem)
			libraryGroup.PUT("/:id", libraryHandler.UpdateItem)
			libraryGroup.DELETE("/:id", libraryHandler.DeleteItem)
		}

		protected.POST("/media/upload-url", mediaHandler.RequestUploadURL)
		protected.GET("/media/:id", mediaHandler.GetMedia)
	}
}
