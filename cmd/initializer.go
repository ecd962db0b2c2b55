package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"firebase.google.com/go/messaging"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"trusthaven/internal/config"
	"trusthaven/internal/handlers"
	"trusthaven/internal/repositories"
	"trusthaven/internal/services"
	"trusthaven/utils"
)

const providerTimeout = 10 * time.Second

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger

	authService *services.AuthService

	authHandler        *handlers.AuthHandler
	userHandler        *handlers.UserHandler
	listingHandler     *handlers.ListingHandler
	reviewHandler      *handlers.ReviewHandler
	favoriteHandler    *handlers.FavoriteHandler
	inquiryHandler     *handlers.InquiryHandler
	dashboardHandler   *handlers.DashboardHandler
	categoryHandler    *handlers.CategoryHandler
	notifyTokenHandler *handlers.NotifyTokenHandler

	hub       *Hub
	firestore *firestore.Client
}

// serviceLogger adapts the application loggers to services.Logger.
type serviceLogger struct {
	info  *log.Logger
	error *log.Logger
}

func (l serviceLogger) Infof(format string, args ...interface{}) {
	l.info.Printf(format, args...)
}

func (l serviceLogger) Errorf(format string, args ...interface{}) {
	l.error.Printf(format, args...)
}

// firebaseClients holds the optional Firebase integrations.
type firebaseClients struct {
	auth      *auth.Client
	firestore *firestore.Client
	messaging *messaging.Client
}

func initFirebase(ctx context.Context, cfg config.Config) (firebaseClients, error) {
	var clients firebaseClients
	if !cfg.FirebaseEnabled() {
		return clients, nil
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return clients, fmt.Errorf("firebase app: %w", err)
	}
	if clients.auth, err = fbApp.Auth(ctx); err != nil {
		return clients, fmt.Errorf("firebase auth: %w", err)
	}
	if clients.firestore, err = fbApp.Firestore(ctx); err != nil {
		return clients, fmt.Errorf("firestore: %w", err)
	}
	if clients.messaging, err = fbApp.Messaging(ctx); err != nil {
		return clients, fmt.Errorf("firebase messaging: %w", err)
	}
	return clients, nil
}

func initializeApp(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client, errorLog, infoLog *log.Logger) (*application, error) {
	logger := serviceLogger{info: infoLog, error: errorLog}
	httpClient := &http.Client{Timeout: providerTimeout}

	// Repositories
	userRepo := &repositories.UserRepository{DB: db}
	listingRepo := &repositories.ListingRepository{DB: db}
	reviewRepo := &repositories.ReviewRepository{DB: db}
	favoriteRepo := &repositories.FavoriteRepository{DB: db}
	inquiryRepo := &repositories.InquiryRepository{DB: db}
	notifyTokenRepo := &repositories.NotifyTokenRepository{DB: db}
	listingCache := repositories.NewListingCache(rdb, cfg.Cache.ListingTTL, cfg.Cache.SearchTTL)
	otpStore := repositories.NewOTPStore(rdb)

	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	fb, err := initFirebase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hub := NewHub(cfg.Server.AllowedOrigins, infoLog, errorLog)
	push := &services.PushService{Client: fb.messaging, Tokens: notifyTokenRepo, Logger: logger}
	notifier := services.MultiNotifier{hub, push}

	// Services
	authService := &services.AuthService{
		Users:    userRepo,
		Sessions: userRepo,
		OTP:      otpStore,
		Tokens:   tokens,
		Logger:   logger,
		Config: services.AuthConfig{
			AccessTTL:      cfg.Auth.AccessTTL,
			RefreshTTL:     cfg.Auth.RefreshTTL,
			RememberTTL:    cfg.Auth.RememberTTL,
			OTPTTL:         cfg.Auth.OTPTTL,
			OTPMaxAttempts: cfg.Auth.OTPMaxAttempts,
			OTPSendLimit:   cfg.Auth.OTPSendLimit,
			OTPSendWindow:  cfg.Auth.OTPSendWindow,
			OTPDailyQuota:  cfg.Auth.OTPDailyQuota,
		},
	}
	userService := &services.UserService{
		Users:    userRepo,
		Sessions: userRepo,
		Notifier: notifier,
		Logger:   logger,
	}
	if fb.auth != nil {
		identity := &services.FirebaseIdentity{Client: fb.auth}
		authService.Identity = identity
		userService.Identity = identity
	}
	if fb.firestore != nil {
		mirror := repositories.NewProfileMirror(fb.firestore)
		authService.Mirror = mirror
		userService.Mirror = mirror
	}

	if cfg.Google.ClientID != "" {
		validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			return nil, fmt.Errorf("google id token validator: %w", err)
		}
		authService.Google = &services.GoogleIdentity{Validator: validator, ClientID: cfg.Google.ClientID}
	}
	if cfg.SMS.APIKey != "" {
		authService.SMS = &services.MobizonSender{Endpoint: cfg.SMS.Endpoint, APIKey: cfg.SMS.APIKey, Client: httpClient}
	} else {
		infoLog.Printf("SMS gateway not configured, OTP codes are logged")
		authService.SMS = &services.LogSender{Logger: logger}
	}
	if cfg.Recaptcha.Secret != "" {
		authService.Captcha = &services.RecaptchaVerifier{Secret: cfg.Recaptcha.Secret, VerifyURL: cfg.Recaptcha.VerifyURL, Client: httpClient}
	}

	listingService := &services.ListingService{
		Listings: listingRepo,
		Reviews:  reviewRepo,
		Cache:    listingCache,
		Notifier: notifier,
		Logger:   logger,
	}
	if cfg.S3Enabled() {
		uploader, err := utils.NewUploader(utils.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		listingService.Uploader = uploader
	}

	reviewService := &services.ReviewService{
		Reviews:  reviewRepo,
		Listings: listingRepo,
		Cache:    listingCache,
		Notifier: notifier,
		Logger:   logger,
	}
	favoriteService := &services.FavoriteService{Favorites: favoriteRepo, Listings: listingRepo}
	inquiryService := &services.InquiryService{Inquiries: inquiryRepo, Listings: listingRepo, Notifier: notifier}
	dashboardService := &services.DashboardService{
		Users:     userRepo,
		Listings:  listingRepo,
		Reviews:   reviewRepo,
		Favorites: favoriteRepo,
		Inquiries: inquiryRepo,
	}

	return &application{
		errorLog:    errorLog,
		infoLog:     infoLog,
		authService: authService,

		authHandler:        &handlers.AuthHandler{Service: authService},
		userHandler:        &handlers.UserHandler{Service: userService},
		listingHandler:     &handlers.ListingHandler{Service: listingService},
		reviewHandler:      &handlers.ReviewHandler{Service: reviewService},
		favoriteHandler:    &handlers.FavoriteHandler{Service: favoriteService},
		inquiryHandler:     &handlers.InquiryHandler{Service: inquiryService},
		dashboardHandler:   &handlers.DashboardHandler{Service: dashboardService},
		categoryHandler:    &handlers.CategoryHandler{},
		notifyTokenHandler: &handlers.NotifyTokenHandler{Service: push},

		hub:       hub,
		firestore: fb.firestore,
	}, nil
}

func (app *application) close() {
	if app.firestore != nil {
		if err := app.firestore.Close(); err != nil {
			app.errorLog.Printf("close firestore: %v", err)
		}
	}
}

func openDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		db.Close()
		return nil, err
	}
	db.SetMaxIdleConns(35)
	db.SetConnMaxIdleTime(5 * time.Minute)
	log.Println("Successfully connected to database")
	return db, nil
}
