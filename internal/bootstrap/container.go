package bootstrap

import (
	"context"
	"log"
	"time"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/config"
	"mistral-thing-be/internal/controller"
	"mistral-thing-be/internal/handler"
	"mistral-thing-be/internal/observability"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/repository/memory"
	"mistral-thing-be/internal/repository/unitofwork"
	"mistral-thing-be/internal/service"
	"mistral-thing-be/internal/websocket"
	chatEvents "mistral-thing-be/pkg/chat/events"
	"mistral-thing-be/pkg/chat/orchestrator"
	"mistral-thing-be/pkg/chat/title"
	"mistral-thing-be/pkg/llm/factory"
	pktNats "mistral-thing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	queryCacheTTL = 5 * time.Minute
	// staleMargin is added to the generation timeout before a busy thread
	// nobody is streaming into counts as abandoned.
	staleMargin = time.Minute
)

type Container struct {
	// Controllers
	ThreadController   controller.IThreadController
	ChatController     controller.IChatController
	SettingsController controller.ISettingsController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	UserEventService service.IUserEventService

	// Realtime sync
	SyncHandler  *handler.SyncHandler
	WebSocketHub *websocket.Hub

	Metrics *observability.Metrics
	Logger  logger.ILogger

	closers []func()
}

// NewContainer wires the application. ctx bounds the lifetime of the
// background workers started here.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	metrics := observability.NewMetrics()

	// 2. Task queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(cfg.Ai)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.DefaultModel)

	// 4. Infrastructure
	// NATS
	var closers []func()
	var eventSink chatEvents.Sink
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventSink = natsPub
		closers = append(closers, natsPub.Close)
	}
	var userEvents service.EventSubscriber
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		userEvents = natsSub
		closers = append(closers, natsSub.Close)
	}

	// Redis
	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb = redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Sync fan-out stays local", err)
		_ = rdb.Close()
		rdb = nil
	} else {
		closers = append(closers, func() { _ = rdb.Close() })
	}

	// 5. Change feed
	queryCache := memory.NewQueryCache(queryCacheTTL)
	feed := changefeed.NewFeed(queryCache)

	eventPublisher := chatEvents.NewNatsPublisher(eventSink, sysLogger)
	registry := orchestrator.NewRegistry()

	// 6. Services
	threadService := service.NewThreadService(uowFactory, queryCache, eventPublisher, registry, feed)
	settingsService := service.NewSettingsService(uowFactory, cfg.Ai.DefaultModel)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.SyncLogFilePath)
	wsHub := websocket.NewHub(rdb, threadService, wsLogger)
	feed.Subscribe(wsHub)
	wsHub.OnRemoteChange(queryCache)
	go wsHub.Run(ctx)

	generationStore := service.NewGenerationStore(uowFactory, feed)
	generator := orchestrator.New(
		generationStore,
		llmProvider,
		registry,
		orchestrator.Observers{metrics, eventPublisher},
		sysLogger,
		orchestrator.Config{
			IdleTimeout:       cfg.Ai.StreamIdleTimeout,
			GenerationTimeout: cfg.Chat.GenerationTimeout,
			FlushInterval:     cfg.Chat.FlushInterval,
			FlushBytes:        cfg.Chat.FlushBytes,
		},
	)
	titler := title.NewGenerator(llmProvider, generationStore, cfg.Ai.TitleModel, sysLogger)
	titler.OnFallback(metrics.TitleFallback)

	chatService := service.NewChatService(
		uowFactory,
		memory.NewRateLimiter(cfg.Chat.RateLimitPerMinute),
		metrics,
		service.NewPublisherService(pubSub, cfg.Chat.GenerateTopic),
		service.NewPublisherService(pubSub, cfg.Chat.TitleTopic),
		eventPublisher,
		registry,
		feed,
		service.ChatServiceConfig{
			AssistantName: cfg.App.AssistantName,
			SiteURL:       cfg.App.SiteURL,
			DefaultModel:  cfg.Ai.DefaultModel,
		},
		sysLogger,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		generator,
		titler,
		generationStore,
		registry.IsRunning,
		service.ConsumerConfig{
			GenerateTopic: cfg.Chat.GenerateTopic,
			TitleTopic:    cfg.Chat.TitleTopic,
			StaleAfter:    cfg.Chat.GenerationTimeout + staleMargin,
		},
		sysLogger,
	)
	closers = append(closers, func() { _ = pubSub.Close() })

	var userEventService service.IUserEventService
	if userEvents != nil {
		userEventService = service.NewUserEventService(userEvents, settingsService, threadService, sysLogger)
	}

	metrics.RegisterGauge("chat_stoppable_generations", "Generations registered for stop on this instance.", func() float64 {
		return float64(registry.Active())
	})
	metrics.RegisterGauge("sync_connected_clients", "Websocket clients connected to this instance.", func() float64 {
		return float64(wsHub.ClientCount())
	})

	// 7. Controllers
	return &Container{
		ThreadController:   controller.NewThreadController(threadService),
		ChatController:     controller.NewChatController(chatService),
		SettingsController: controller.NewSettingsController(settingsService),

		ConsumerService:  consumerService,
		UserEventService: userEventService,

		SyncHandler:  handler.NewSyncHandler(ctx, wsHub, wsLogger),
		WebSocketHub: wsHub,

		Metrics: metrics,
		Logger:  sysLogger,

		closers: closers,
	}
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
