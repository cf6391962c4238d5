package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/poofware/mfa-service/internal/app"
	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/controllers"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/services"
	"github.com/poofware/mfa-service/internal/utils"
)

func main() {
	utils.InitLogger("mfa-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	challengeRepo := repositories.NewChallengeRepository(application.KV)
	credentialRepo := repositories.NewCredentialRepository(application.KV)
	enrollmentRepo := repositories.NewEnrollmentRepository(application.KV)
	otpCodeRepo := repositories.NewOTPCodeRepository(application.KV)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	rateLimiterService := services.NewRateLimiterService(application.KV, cfg)
	challengeService := services.NewChallengeService(challengeRepo, cfg)
	webauthnService := services.NewWebAuthnService(challengeService, credentialRepo, cfg)

	registry, err := services.NewSecondFactorRegistry(
		cfg,
		webauthnService,
		enrollmentRepo,
		otpCodeRepo,
		rateLimiterService,
	)
	if err != nil {
		utils.Logger.Fatal("Failed to build second-factor registry:", err)
	}

	storeCleanupService := services.NewStoreCleanupService(application.ExpiredCleaner())

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	webauthnController := controllers.NewWebAuthnController(webauthnService)
	secondFactorController := controllers.NewSecondFactorController(registry)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	// /mfa/v1
	mfaRouter := router.PathPrefix("/mfa").Subrouter()
	v1Router := mfaRouter.PathPrefix("/v1").Subrouter()

	// WebAuthn ceremonies
	v1Router.HandleFunc("/webauthn/registration/options", webauthnController.RegistrationOptions).Methods("POST")
	v1Router.HandleFunc("/webauthn/registration/verify", webauthnController.VerifyRegistration).Methods("POST")
	v1Router.HandleFunc("/webauthn/authentication/options", webauthnController.AuthenticationOptions).Methods("POST")
	v1Router.HandleFunc("/webauthn/authentication/verify", webauthnController.VerifyAuthentication).Methods("POST")
	v1Router.HandleFunc("/webauthn/credentials/{userID}", webauthnController.ListCredentials).Methods("GET")
	v1Router.HandleFunc("/webauthn/credentials/{userID}/{credentialID}", webauthnController.RemoveCredential).Methods("DELETE")

	// Generic second-factor surface
	v1Router.HandleFunc("/second-factor/setup", secondFactorController.Setup).Methods("POST")
	v1Router.HandleFunc("/second-factor/setup/verify", secondFactorController.VerifySetup).Methods("POST")
	v1Router.HandleFunc("/second-factor/login/request-code", secondFactorController.RequestLoginCode).Methods("POST")
	v1Router.HandleFunc("/second-factor/login/verify", secondFactorController.VerifyLogin).Methods("POST")
	v1Router.HandleFunc("/second-factor/{method}/info/{userID}", secondFactorController.GetInfo).Methods("GET")
	v1Router.HandleFunc("/second-factor/{method}/disable", secondFactorController.Disable).Methods("POST")

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()

	_, schErr := c.AddFunc("0 3 * * *", func() {
		if e := storeCleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled store cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule store cleanup job")
	}

	c.Start()

	allowedOrigins := []string{cfg.RPOrigin}
	if !cfg.CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000")
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
