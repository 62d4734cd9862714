package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"autovalue/internal/config"
	"autovalue/internal/db"
	"autovalue/internal/email"
	apihttp "autovalue/internal/http"
	"autovalue/internal/llm"
	"autovalue/internal/repository"
	"autovalue/internal/service"
	"autovalue/internal/vpic"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool, "up"); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	accountRepo := repository.NewPgAccountRepository(pool)
	referenceRepo := repository.NewPgReferenceRepository(pool)
	vinCacheRepo := repository.NewPgVINCacheRepository(pool)
	valuationRepo := repository.NewPgValuationRepository(pool)
	followUpRepo := repository.NewPgFollowUpRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	inventoryRepo := repository.NewPgInventoryRepository(pool)
	offerRepo := repository.NewPgOfferRepository(pool)
	marketRepo := repository.NewPgMarketRepository(pool)
	referralRepo := repository.NewPgReferralRepository(pool)

	llmClient := llm.New(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)
	if llmClient == nil {
		logger.Warn("llm not configured, using template explanations")
	}
	emailSender := newEmailSender(cfg, logger)

	var (
		decodeLimiter service.RateLimiter
		tokenStore    service.RefreshTokenStore
		redisClient   *redis.Client
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			redisClient = client
			decodeLimiter = service.NewRedisRateLimiter(client, "vin_decode", time.Minute, cfg.DecodeRateLimitPerMinute)
			tokenStore = service.NewRedisRefreshTokenStore(client)
		}
		cancel()
	}
	if decodeLimiter == nil {
		decodeLimiter = service.NewMemoryRateLimiter(time.Minute, cfg.DecodeRateLimitPerMinute)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	refTTL := time.Duration(cfg.ReferenceCacheTTLHours) * time.Hour
	var referenceSvc *service.ReferenceService
	if redisClient != nil {
		referenceSvc = service.NewReferenceService(logger, referenceRepo, redisClient, cfg.ReferenceCacheVersion, refTTL)
	} else {
		referenceSvc = service.NewReferenceService(logger, referenceRepo, nil, cfg.ReferenceCacheVersion, refTTL)
	}

	vpicClient := vpic.NewClient(cfg.VPICBaseURL, time.Duration(cfg.VPICTimeoutSeconds)*time.Second, logger)
	decoderSvc := service.NewDecoderService(logger, vinCacheRepo, vpicClient, time.Duration(cfg.VINCacheTTLHours)*time.Hour)

	valuationSvc := service.NewValuationService(logger, valuationRepo, service.ValuationScorer{BasePrice: cfg.ValuationBasePrice})
	followUpSvc := service.NewFollowUpService(logger, followUpRepo, valuationSvc)
	explanationSvc := service.NewExplanationService(logger, llmClient)
	marketSvc := service.NewMarketService(logger, marketRepo)
	reportSvc := service.NewReportService(logger, valuationSvc, explanationSvc, marketSvc, emailSender, cfg.AppBaseURL)
	contextSvc := service.NewBasicContextService(messageRepo)
	chatSvc := service.NewChatService(logger, sessionRepo, messageRepo, contextSvc, valuationSvc, llmClient)
	billingSvc := service.NewBillingService(logger, accountRepo, valuationRepo, cfg.StripeWebhookSecret)
	dealerSvc := service.NewDealerService(logger, inventoryRepo, offerRepo, accountRepo, valuationSvc)
	referralSvc := service.NewReferralService(logger, referralRepo, accountRepo, emailSender, cfg.AppBaseURL)
	userSvc := service.NewUserService(logger, userRepo, accountRepo, referralSvc)

	if cfg.StripeWebhookSecret == "" {
		logger.Warn("stripe webhook secret not configured")
	}

	router := apihttp.NewRouter(logger, jwtSvc, apihttp.Handlers{
		User:      apihttp.NewUserHandler(logger, userSvc, jwtSvc),
		Reference: apihttp.NewReferenceHandler(logger, referenceSvc),
		VIN:       apihttp.NewVINHandler(logger, decoderSvc, decodeLimiter),
		Valuation: apihttp.NewValuationHandler(logger, valuationSvc, followUpSvc, billingSvc, dealerSvc),
		Report:    apihttp.NewReportHandler(logger, reportSvc),
		Chat:      apihttp.NewChatHandler(logger, chatSvc),
		Dealer:    apihttp.NewDealerHandler(logger, dealerSvc),
		Billing:   apihttp.NewBillingHandler(logger, billingSvc),
		Referral:  apihttp.NewReferralHandler(logger, referralSvc),
		Market:    apihttp.NewMarketHandler(logger, marketSvc),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newEmailSender prefiere Resend, luego SMTP; sin ninguno el envio queda deshabilitado.
func newEmailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.ResendAPIKey != "" {
		sender, err := email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		if err == nil {
			return sender
		}
		logger.Warn("resend sender init failed", zap.Error(err))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom, cfg.EmailFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	return email.NewDisabledSender("email sender not configured")
}
