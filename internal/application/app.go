package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/aetheria/aetheria/server/internal/application/usecase"
	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/repository"
	"github.com/aetheria/aetheria/server/internal/domain/service"
	"github.com/aetheria/aetheria/server/internal/infrastructure/config"
	"github.com/aetheria/aetheria/server/internal/infrastructure/eventbus"
	"github.com/aetheria/aetheria/server/internal/infrastructure/llm/gemini"
	"github.com/aetheria/aetheria/server/internal/infrastructure/media"
	"github.com/aetheria/aetheria/server/internal/infrastructure/persistence"
	"github.com/aetheria/aetheria/server/internal/infrastructure/prompt"
	httpserver "github.com/aetheria/aetheria/server/internal/interfaces/http"
	"github.com/aetheria/aetheria/server/internal/interfaces/http/handlers"
	ws "github.com/aetheria/aetheria/server/internal/interfaces/websocket"
)

// App 应用根, 负责装配与生命周期
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	store        repository.ConversationStore
	bus          *eventbus.InMemoryBus
	orchestrator *service.Orchestrator
	profile      *service.Profile
	hub          *ws.Hub
	httpServer   *httpserver.Server

	cancelHub context.CancelFunc
}

// NewApp 装配应用
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// 会话以欢迎语开场
	seed := entity.Message{
		ID:              prompt.SeedMessageID,
		Role:            entity.RoleModel,
		Text:            prompt.SeedText,
		Translation:     prompt.SeedTranslation,
		ShowTranslation: true,
	}
	store := persistence.NewMemoryConversationStore(seed)

	bus := eventbus.NewInMemoryBus(logger, 256)

	chatClient := gemini.New(gemini.Config{
		BaseURL:     cfg.Gemini.BaseURL,
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		DefaultName: cfg.Persona.DefaultName,
	}, logger)

	pacing := service.Pacing{
		InitialDelay:   cfg.Pacing.InitialDelay,
		InitialJitter:  cfg.Pacing.InitialJitter,
		BaseThinking:   cfg.Pacing.BaseThinking,
		PerCharTyping:  cfg.Pacing.PerCharTyping,
		EffectDelay:    cfg.Pacing.EffectDelay,
		EffectDuration: cfg.Pacing.EffectDuration,
	}

	orchestrator := service.NewOrchestrator(store, chatClient, bus, pacing, logger)
	profile := service.NewProfile(store, cfg.Persona.DefaultName)
	codec := media.NewCodec()

	sendTurn := usecase.NewSendTurnUseCase(orchestrator, profile, codec, logger)

	hub := ws.NewHub(logger)
	hub.SubscribeBus(bus)

	chatHandler := handlers.NewChatHandler(sendTurn, orchestrator, store, logger)
	profileHandler := handlers.NewProfileHandler(profile, codec, logger)
	wsHandler := ws.NewHandler(hub, logger)

	server := httpserver.NewServer(httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		Mode: cfg.Server.Mode,
	}, chatHandler, profileHandler, wsHandler, logger)

	return &App{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		bus:          bus,
		orchestrator: orchestrator,
		profile:      profile,
		hub:          hub,
		httpServer:   server,
	}, nil
}

// Start 启动应用
func (a *App) Start(ctx context.Context) error {
	hubCtx, cancel := context.WithCancel(ctx)
	a.cancelHub = cancel
	go a.hub.Run(hubCtx)

	return a.httpServer.Start(ctx)
}

// Stop 停止应用: 先停入口, 再撤掉待触发的 burst 定时器, 最后关总线
func (a *App) Stop(ctx context.Context) error {
	err := a.httpServer.Stop(ctx)

	a.orchestrator.Close()
	if a.cancelHub != nil {
		a.cancelHub()
	}
	a.bus.Close()

	return err
}

// Logger 返回日志实例
func (a *App) Logger() *zap.Logger {
	return a.logger
}
