package bootstrap

import (
	"context"
	"log"

	"ai-assistant-be/internal/auth"
	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/controller"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/pkg/mailer"
	"ai-assistant-be/internal/service"
	"ai-assistant-be/internal/store"
	"ai-assistant-be/internal/websocket"
	"ai-assistant-be/pkg/google"
	"ai-assistant-be/pkg/llm/factory"
	"ai-assistant-be/pkg/tools"

	pktNats "ai-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController  controller.IChatController
	OAuthController controller.IOAuthController

	// Background Services (Exposed for main.go to run)
	NotifierService service.INotifierService

	// WebSockets & Notification
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	blob := store.NewFileBlob(cfg.App.StorePath)
	sessionStore := store.NewSessionStore(blob, sysLogger)

	credentials := auth.NewCredentialHolder()
	googleConf := auth.NewGoogleConfig(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Services
	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OpenAIKey,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure (Moved up for dependency injection)
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	notifierService := service.NewNotifierService(pubSub, wsHub, wsLogger)

	// Tool providers: calendar always goes through the Google REST API, the
	// email transport is switchable between Gmail and plain SMTP.
	calendarClient := google.NewCalendarClient(googleConf, credentials)

	var emailSender tools.EmailSender
	if cfg.Ai.EmailTransport == "smtp" {
		emailSender = mailer.NewSMTPSender(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
		log.Printf("[INFO] Using Email Transport: SMTP (%s)", cfg.SMTP.Host)
	} else {
		emailSender = google.NewGmailClient(googleConf, credentials)
		log.Printf("[INFO] Using Email Transport: GMAIL")
	}

	dispatcher := tools.NewDispatcher(credentials, calendarClient, emailSender, sysLogger)

	var toolRouter tools.Router
	if cfg.Ai.ToolRouter == "llm" {
		toolRouter = tools.NewLLMRouter(llmProvider)
		log.Printf("[INFO] Using Tool Router: LLM")
	} else {
		toolRouter = tools.NewHeuristicRouter()
		log.Printf("[INFO] Using Tool Router: HEURISTIC")
	}

	chatService := service.NewChatService(
		sessionStore,
		llmProvider,
		toolRouter,
		dispatcher,
		notifierService,
		natsPub,
		sysLogger,
	)
	oauthService := service.NewOAuthService(
		googleConf,
		credentials,
		notifierService,
		natsPub,
		sysLogger,
	)

	// 4. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		ChatController:  controller.NewChatController(chatService, cfg.App.UploadDir, sysLogger),
		OAuthController: controller.NewOAuthController(oauthService, cfg.App.ClientURL, sysLogger),

		NotifierService: notifierService,
		WebSocketHub:    wsHub,
	}
}
