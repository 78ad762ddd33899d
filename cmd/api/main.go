package main

import (
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"payhub/internal/cache"
	"payhub/internal/payments"
	"payhub/internal/ratelimiter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "0.3.0"

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	return zap.New(core).Sugar(), nil
}

// loadGateways builds the SDK gateway config from environment variables.
// A gateway with no credentials set simply stays unregistered.
func loadGateways(cfg *payments.Config) {
	if code := os.Getenv("ESEWA_MERCHANT_CODE"); code != "" {
		cfg.Esewa = &payments.EsewaConfig{
			MerchantCode: code,
			SecretKey:    os.Getenv("ESEWA_SECRET_KEY"),
		}
	}
	if secret := os.Getenv("KHALTI_SECRET_KEY"); secret != "" {
		cfg.Khalti = &payments.KhaltiConfig{
			PublicKey: os.Getenv("KHALTI_PUBLIC_KEY"),
			SecretKey: secret,
		}
	}
	if merchant := os.Getenv("CONNECTIPS_MERCHANT_ID"); merchant != "" {
		cfg.ConnectIPS = &payments.ConnectIPSConfig{
			MerchantID:    merchant,
			AppID:         os.Getenv("CONNECTIPS_APP_ID"),
			AppName:       os.Getenv("CONNECTIPS_APP_NAME"),
			Password:      os.Getenv("CONNECTIPS_PASSWORD"),
			PrivateKeyPEM: os.Getenv("CONNECTIPS_PRIVATE_KEY"),
		}
	}
	if merchant := os.Getenv("IMEPAY_MERCHANT_CODE"); merchant != "" {
		cfg.IMEPay = &payments.IMEPayConfig{
			MerchantCode: merchant,
			Module:       os.Getenv("IMEPAY_MODULE"),
			APIUser:      os.Getenv("IMEPAY_API_USER"),
			APIPassword:  os.Getenv("IMEPAY_API_PASSWORD"),
		}
	}
	if bankID := os.Getenv("MOBILEBANKING_BANK_ID"); bankID != "" {
		cfg.MobileBanking = &payments.MobileBankingConfig{
			BankID: bankID,
			APIKey: os.Getenv("MOBILEBANKING_API_KEY"),
		}
	}
	if key := os.Getenv("STRIPE_API_KEY"); key != "" {
		cfg.Stripe = &payments.StripeConfig{APIKey: key}
	}
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file loaded:", err)
	}

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	mode := payments.ModeSandbox
	if os.Getenv("PAYMENT_MODE") == "production" {
		mode = payments.ModeProduction
	}

	redisDB := 0
	if val := os.Getenv("REDIS_DB"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			redisDB = parsed
		}
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		mode:        mode,
		redis: redisConfig{
			addr:     os.Getenv("REDIS_ADDR"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       redisDB,
			enabled:  os.Getenv("REDIS_ENABLED") == "true",
		},
		rateLimiter: LoadRateLimiterConfig(),
	}
	if cfg.addr == "" {
		cfg.addr = ":8080"
	}

	sdkCfg := payments.Config{Mode: mode, Logger: logger}
	loadGateways(&sdkCfg)

	sdk := payments.New(sdkCfg)
	webhooks := payments.NewWebhookProcessor(sdk)

	// Observe dispatch outcomes; the bus is the SDK's extension point for
	// reconciliation, notifications and the like.
	sdk.Events().On(payments.EventPay, func(evt payments.Event) {
		logger.Infow("payment event", "operation", evt.Operation, "gateway", evt.Gateway)
	})
	sdk.Events().On(payments.EventWebhook, func(evt payments.Event) {
		logger.Infow("webhook event", "gateway", evt.Gateway)
	})

	var idempotency cache.IdempotencyStore
	if cfg.redis.enabled {
		idempotency = cache.NewRedisStore(cfg.redis.addr, cfg.redis.password, cfg.redis.db)
		logger.Infow("webhook idempotency store enabled", "addr", cfg.redis.addr)
	}

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:      cfg,
		sdk:         sdk,
		webhooks:    webhooks,
		idempotency: idempotency,
		rateLimiter: rateLimiter,
		logger:      logger,
	}

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
