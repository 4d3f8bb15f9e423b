package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"familyvault/internal/config"
	"familyvault/internal/database"
	"familyvault/internal/handlers"
	"familyvault/internal/repository"
	"familyvault/internal/security"
	"familyvault/internal/service"
	"familyvault/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize media storage
	media, err := storage.NewMediaStore(cfg.MediaPath, cfg.UploadMaxSize)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	// Initialize repositories
	familyRepo := repository.NewFamilyRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Initialize services
	authService := service.NewAuthService(familyRepo, memberRepo, sessionRepo, cfg.SessionDuration)
	familyService := service.NewFamilyService(familyRepo, memberRepo, vaultRepo, memoryRepo)
	memberService := service.NewMemberService(memberRepo, familyRepo)
	vaultService := service.NewVaultService(vaultRepo, memberRepo, memoryRepo)
	memoryService := service.NewMemoryService(memoryRepo, vaultRepo, memberRepo, familyRepo, media)
	invitationService := service.NewInvitationService(invitationRepo, memberRepo, familyRepo, cfg.InviteSecret, cfg.InviteDuration)

	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if emailService.IsEnabled() {
		log.Println("Email sending enabled via Amazon SES")
	} else {
		log.Println("Email sending disabled (SES_FROM_EMAIL not set)")
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	loginLimiter := security.NewRateLimiter(10, time.Minute)

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, csrf, loginLimiter)
	authHandler := handlers.NewAuthHandler(authService, emailService, csrf, media, oauthProviders, cfg.OAuthRedirectBaseURL)
	familyHandler := handlers.NewFamilyHandler(familyService)
	memberHandler := handlers.NewMemberHandler(memberService, invitationService, emailService, media)
	vaultHandler := handlers.NewVaultHandler(vaultService, media)
	memoryHandler := handlers.NewMemoryHandler(memoryService, familyService, media)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /family/registerfamily", middleware.RateLimit(authHandler.RegisterFamily))
	mux.HandleFunc("POST /family/loginfamily", middleware.RateLimit(authHandler.LoginFamily))
	mux.HandleFunc("POST /member/loginmember", middleware.RateLimit(authHandler.LoginMember))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /csrf-token", authHandler.CSRFToken)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Invitation acceptance is reachable without a session
	mux.HandleFunc("GET /invite/accept", memberHandler.ValidateInvitation)
	mux.HandleFunc("POST /invite/accept", middleware.RateLimit(memberHandler.AcceptInvitation))

	// Session info
	mux.HandleFunc("GET /me", middleware.RequireSession(authHandler.Me))

	// Family routes
	mux.HandleFunc("GET /family/familyProfile/{familyId}", middleware.RequireSession(familyHandler.Profile))
	mux.HandleFunc("GET /family/allstats/{familyId}", middleware.RequireSession(familyHandler.Stats))
	mux.HandleFunc("PUT /family/{familyId}", middleware.RequireSession(middleware.CSRFProtect(familyHandler.Update)))

	// Member routes
	mux.HandleFunc("POST /member/addmember", middleware.RequireSession(middleware.CSRFProtect(memberHandler.AddMember)))
	mux.HandleFunc("POST /member/addexistingmember", middleware.RequireSession(middleware.CSRFProtect(memberHandler.AddExistingMember)))
	mux.HandleFunc("GET /member/findMemberByEmailandFamilyId/{familyId}/{email}", middleware.RequireSession(memberHandler.FindByEmailAndFamily))
	mux.HandleFunc("GET /member/{memberId}", middleware.RequireSession(memberHandler.Get))
	mux.HandleFunc("POST /member/invite", middleware.RequireSession(middleware.CSRFProtect(memberHandler.Invite)))
	mux.HandleFunc("GET /member/invitations/{familyId}", middleware.RequireSession(memberHandler.ListInvitations))

	// Vault routes
	mux.HandleFunc("POST /vault/createVault", middleware.RequireSession(middleware.CSRFProtect(vaultHandler.Create)))
	mux.HandleFunc("GET /vault/getfamilyvaults/{familyId}/{memberId}", middleware.RequireSession(vaultHandler.ListFamilyVaults))
	mux.HandleFunc("GET /vault/{vaultId}", middleware.RequireSession(vaultHandler.Get))
	mux.HandleFunc("PUT /vault/{vaultId}", middleware.RequireSession(middleware.CSRFProtect(vaultHandler.Update)))
	mux.HandleFunc("DELETE /vault/{vaultId}", middleware.RequireSession(middleware.CSRFProtect(vaultHandler.Delete)))

	// Memory routes
	mux.HandleFunc("POST /memory/uploadMemory", middleware.RequireSession(middleware.CSRFProtect(memoryHandler.Upload)))
	mux.HandleFunc("PUT /memory/editMemory/{memoryId}", middleware.RequireSession(middleware.CSRFProtect(memoryHandler.Edit)))
	mux.HandleFunc("DELETE /memory/deleteMemory/{familyId}/{vaultId}/{memoryId}", middleware.RequireSession(middleware.CSRFProtect(memoryHandler.Delete)))
	mux.HandleFunc("GET /memory/allfamilymemory/{familyId}", middleware.RequireSession(memoryHandler.AllFamilyMemory))
	mux.HandleFunc("GET /memory/vault/{vaultId}", middleware.RequireSession(memoryHandler.VaultMemories))
	mux.HandleFunc("GET /memory/memory/{memoryId}", middleware.RequireSession(memoryHandler.Get))

	// Stored media files
	mux.HandleFunc("GET /media/{path...}", middleware.RequireSession(memoryHandler.ServeMedia))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}
	}
}
