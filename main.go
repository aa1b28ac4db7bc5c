// main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"license-server/cmd"
	"license-server/internal/data/repository"
	"license-server/internal/notify"
	"license-server/internal/usecase"
	"license-server/internal/wire"
	"license-server/pkg/events"
	"license-server/pkg/mailer"
	"license-server/pkg/metrics"
	"license-server/pkg/objectstore"
	"license-server/pkg/qrcode"
	"license-server/pkg/token"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("version", config.App.Version),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Object store
	store, closeStore, err := objectstore.Open(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to open object store", zap.Error(err))
	}
	defer closeStore()

	// Initialize all repositories, lalu muat data yang sudah tersimpan
	repos := repository.NewRepository(store, logger)
	repos.Load(ctx)

	// Outbound email
	sender, err := mailer.New(config.Email, logger)
	if err != nil {
		logger.Fatal("Failed to init mailer", zap.Error(err))
	}

	m := metrics.New()
	queue := notify.NewQueue(sender, notify.Config{
		QueueSize:       config.Mail.QueueSize,
		Workers:         config.Mail.Workers,
		MaxAttempts:     config.Mail.MaxAttempts,
		RetryBackoff:    config.Mail.RetryBackoff,
		DeadLetterLimit: config.Mail.DeadLetterLimit,
	}, m, logger)
	queue.Start()

	publisher, err := events.New(config.Events.NATSURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect event publisher", zap.Error(err))
	}
	defer publisher.Close()

	secret := config.JWT.Secret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
	}
	if config.Admin.KeyHash == "" {
		logger.Warn("ADMIN_KEY_HASH is not set, admin endpoints are disabled")
	}

	// Wire all dependencies
	app := wire.Wiring(repos, usecase.Infra{
		Dispatcher: queue,
		Events:     publisher,
		QRCode:     qrcode.NewRenderer(256),
		Tokens:     token.NewIssuer(secret, config.App.Name, time.Duration(config.JWT.ExpiryHours)*time.Hour),
		Metrics:    m,
	}, queue, config, logger)

	app.Limiter.StartCleanup(ctx, time.Minute)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	if err := queue.Stop(config.App.ShutdownTimeout); err != nil {
		logger.Warn("Notification queue did not drain", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
