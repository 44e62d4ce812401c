package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/healthchat/backend/internal/config"
	"github.com/healthchat/backend/internal/handler"
	"github.com/healthchat/backend/internal/model/content"
	"github.com/healthchat/backend/internal/service/ai"
	"github.com/healthchat/backend/internal/service/gateway"
	"github.com/healthchat/backend/internal/service/resolver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	table, err := content.Load(cfg.Content.File)
	if err != nil {
		log.Fatalf("failed to load content: %v", err)
	}
	store := content.NewMemoryStore(table)

	var opts resolver.Options

	// Initialize AI service
	if cfg.AI.Enabled() {
		aiService, err := newAIService(ctx, cfg.AI, table.Disclaimer)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without generative answers - 请检查 Ark 模型相关环境变量")
		} else {
			opts.Answerer = aiService
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，跳过生成式回答")
	}

	// Initialize gateway client
	if cfg.Gateway.Enabled() {
		gatewayClient, err := gateway.NewClient(cfg.Gateway)
		if err != nil {
			log.Printf("warning: failed to initialize gateway client: %v", err)
		} else {
			opts.Sender = gatewayClient
			log.Printf("gateway enabled: %s (region %s)", cfg.Gateway.Endpoint, cfg.Gateway.Region)
		}
	} else {
		log.Println("API_GATEWAY_ENDPOINT 未配置，跳过网关转发")
	}

	res, err := resolver.New(table, opts)
	if err != nil {
		log.Fatalf("failed to build resolver: %v", err)
	}
	log.Printf("resolver tiers: %v", res.Tiers())

	router := handler.NewRouter(store, res, cfg.HTTP)

	startServer(ctx, cfg.Server, router)
}

func newAIService(ctx context.Context, aiCfg config.AIConfig, disclaimer string) (*ai.Service, error) {
	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel, disclaimer)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Healthcare chatbot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
