package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/bot"
	"github.com/handwave-community/handwave/internal/chat"
	"github.com/handwave-community/handwave/internal/community"
	"github.com/handwave-community/handwave/internal/config"
	"github.com/handwave-community/handwave/internal/db"
	"github.com/handwave-community/handwave/internal/meeting"
	"github.com/handwave-community/handwave/internal/observ"
	"github.com/handwave-community/handwave/internal/repository/postgres"
	"github.com/handwave-community/handwave/internal/schedule"
	"github.com/handwave-community/handwave/internal/webhook"
	"github.com/handwave-community/handwave/internal/zoom"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	// Redis only backs webhook dedup; the bot runs without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	pool := database.Pool()
	meetingRepo := postgres.NewMeetingStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	participantRepo := postgres.NewParticipantStore(pool)

	zoomClient := zoom.NewClient(
		cfg.Zoom.AccountID,
		cfg.Zoom.ClientID,
		cfg.Zoom.ClientSecret,
		cfg.Zoom.BaseURL,
		cfg.Zoom.AuthURL,
	)
	surface := chat.NewREST(cfg.Chat.Token, cfg.Chat.APIBaseURL)

	operators := make([]meeting.Operator, 0, len(cfg.Meeting.Operators))
	for _, op := range cfg.Meeting.Operators {
		operators = append(operators, meeting.Operator{
			ChatID:    op.ChatID,
			ZoomOwner: op.ZoomOwner,
			Email:     op.Email,
		})
	}

	manager := meeting.NewManager(
		meetingRepo, messageRepo, participantRepo,
		zoomClient, surface,
		meeting.Config{
			RepostDelay: time.Duration(cfg.Meeting.RepostDelay),
			MaxListed:   cfg.Meeting.MaxListed,
			CloseEmoji:  cfg.Meeting.CloseEmoji,
			RepostEmoji: cfg.Meeting.RepostEmoji,
			Operators:   operators,
		},
		logger.Named("mlm"),
	)

	// Inbound chat events: gateway socket feeding the dispatcher.
	gateway := chat.NewGateway(cfg.Chat.Token, cfg.Chat.GatewayURL, logger.Named("gateway"))
	go gateway.Run(ctx)

	dispatcher := bot.NewDispatcher(manager, surface, cfg.Chat.Prefix, logger.Named("dispatcher"))
	go dispatcher.Run(ctx, gateway.Events())

	// Daily tasks: community prompt plus the stale-meeting sweep.
	loc, err := time.LoadLocation(cfg.Daily.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	scheduler := schedule.New(loc, logger.Named("schedule"))
	poster := community.NewPoster(surface, cfg.Daily.ChannelID, logger.Named("community"))
	scheduler.At(ctx, cfg.Daily.Hour, cfg.Daily.Minute, "daily_prompt", poster.PostDaily)
	scheduler.At(ctx, 4, 0, "stale_sweep", manager.SweepStale)

	// HTTP ingress: health, metrics, and the Zoom webhook.
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Recovery())

	srv.GET("/healthz", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	srv.GET("/metrics", gin.WrapH(promhttp.Handler()))

	dedup := webhook.NewDeduper(redisClient, logger.Named("webhook"))
	webhook.NewHandler(manager, dedup, cfg.Zoom.WebhookSecret, logger.Named("webhook")).Register(srv)

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: srv}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting handwave",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
