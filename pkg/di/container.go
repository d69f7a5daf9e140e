package di

import (
	"lumen-chat/backend/internal/api"
	"lumen-chat/backend/internal/ollama"
	"lumen-chat/backend/internal/repository"
	"lumen-chat/backend/internal/service"
	"lumen-chat/backend/internal/ws"
	"lumen-chat/backend/pkg/config"
	"lumen-chat/backend/pkg/logger"
	"lumen-chat/backend/pkg/observability"

	"gorm.io/gorm"
)

// Container wires the application's components together
type Container struct {
	DB      *gorm.DB
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *observability.Metrics

	ThreadRepo  repository.ThreadRepository
	MessageRepo repository.MessageRepository

	Backend service.Backend
	Hub     *ws.Hub

	ChatService   *service.ChatService
	ThreadService *service.ThreadService

	ThreadHandler  *api.ThreadHandler
	MessageHandler *api.MessageHandler
	ModelHandler   *api.ModelHandler
}

func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) *Container {
	metrics := observability.NewMetrics()
	hub := ws.NewHub(log, metrics)

	threadRepo := repository.NewGormThreadRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	backend := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout)

	chatService := service.NewChatService(threadRepo, messageRepo, backend, hub, nil, log, metrics,
		cfg.Features.MaxAttachmentBytes)
	threadService := service.NewThreadService(threadRepo, messageRepo, chatService, log)

	return &Container{
		DB:      db,
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,

		ThreadRepo:  threadRepo,
		MessageRepo: messageRepo,

		Backend: backend,
		Hub:     hub,

		ChatService:   chatService,
		ThreadService: threadService,

		ThreadHandler:  api.NewThreadHandler(threadService),
		MessageHandler: api.NewMessageHandler(chatService),
		ModelHandler:   api.NewModelHandler(chatService),
	}
}
