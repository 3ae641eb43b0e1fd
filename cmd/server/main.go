package main

import (
	"fmt"
	"log"
	"os"

	"learnplanning/internal/auth"
	"learnplanning/internal/database"
	"learnplanning/internal/handlers"
	"learnplanning/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present (production sets real env vars)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: No .env file found: %v", err)
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Initialize OAuth config
	if err := auth.InitOAuth(); err != nil {
		log.Fatal("Failed to initialize OAuth:", err)
	}

	// Build services
	pushService := services.NewPushService(database.GetDB(), services.PushConfig{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
	})

	reminderService := services.NewReminderService(database.GetDB(), pushService)
	reminderService.Start()

	emailService := services.NewEmailService()

	imageService, err := services.NewImageService()
	if err != nil {
		log.Printf("Warning: Image service unavailable, avatar uploads disabled: %v", err)
	}

	handlers.Init(pushService, reminderService, emailService, imageService)

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// CORS for the frontend origin
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	}))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no auth required)
	router.GET("/auth/login", handlers.LoginHandler)
	router.GET("/auth/callback", handlers.GoogleCallbackHandler)

	// Public routes
	router.GET("/public/groups", handlers.GetGroups)
	router.GET("/accounts/:id", handlers.GetAccount)
	router.GET("/push/vapid-key", handlers.GetVAPIDKey)

	// Reminder check endpoint for external schedulers
	router.POST("/reminders/check", handlers.CheckReminders)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", handlers.LogoutHandler)
		protected.GET("/auth/me", handlers.GetCurrentUser)
		protected.PUT("/profile", handlers.UpdateProfile)
		protected.POST("/profile/avatar", handlers.UploadAvatar)

		// Groups
		protected.POST("/groups", handlers.CreateGroup)
		protected.GET("/groups", handlers.GetGroups)
		protected.GET("/groups/:group_id", handlers.GetGroupByID)
		protected.PUT("/groups/:group_id", handlers.UpdateGroup)
		protected.DELETE("/groups/:group_id", handlers.DeleteGroup)

		// Membership
		protected.POST("/groups/:group_id/join", handlers.JoinGroup)
		protected.GET("/groups/:group_id/members", handlers.ListMembers)
		protected.PUT("/groups/:group_id/members", handlers.ManageMember)
		protected.DELETE("/groups/:group_id/members", handlers.LeaveGroup)

		// Invitations
		protected.POST("/groups/:group_id/invite", handlers.InviteToGroup)
		protected.GET("/groups/:group_id/invitations", handlers.ListGroupInvitations)
		protected.GET("/invitations", handlers.ListMyInvitations)
		protected.PUT("/invitations/:invitation_id", handlers.RespondToInvitation)
		protected.DELETE("/invitations/:invitation_id", handlers.DeleteInvitation)

		// Events and reminders
		protected.POST("/events", handlers.CreateEvent)
		protected.GET("/events", handlers.ListEvents)
		protected.GET("/events/:event_id", handlers.GetEvent)
		protected.DELETE("/events/:event_id", handlers.DeleteEvent)
		protected.POST("/reminders/trigger", handlers.TriggerReminders)

		// Push subscriptions
		protected.POST("/push/subscribe", handlers.SubscribePush)
		protected.DELETE("/push/subscribe", handlers.UnsubscribePush)

		// Notifications
		protected.GET("/notifications", handlers.ListNotifications)
		protected.POST("/notifications/:notification_id/read", handlers.MarkNotificationRead)
		protected.POST("/notifications/read-all", handlers.MarkAllNotificationsRead)

		// Goals
		protected.POST("/groups/:group_id/goals", handlers.CreateGoal)
		protected.GET("/groups/:group_id/goals", handlers.ListGroupGoals)
		protected.PUT("/goals/:goal_id", handlers.UpdateGoal)
		protected.DELETE("/goals/:goal_id", handlers.DeleteGoal)
		protected.POST("/subgoals/:subgoal_id/toggle", handlers.ToggleSubgoal)

		// Questions
		protected.POST("/groups/:group_id/questions", handlers.CreateQuestion)
		protected.GET("/groups/:group_id/questions", handlers.ListGroupQuestions)
		protected.GET("/questions/:question_id", handlers.GetQuestion)
		protected.POST("/questions/:question_id/replies", handlers.CreateReply)
		protected.POST("/questions/:question_id/resolve", handlers.ResolveQuestion)

		// Group chat
		protected.GET("/groups/:group_id/messages", handlers.GetGroupMessages)
		protected.POST("/groups/:group_id/messages", handlers.SendGroupMessage)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Println("Server starting on port " + port + "...")
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
