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

	"github.com/zhouzirui/emotibot/backend/internal/config"
	"github.com/zhouzirui/emotibot/backend/internal/handler"
	"github.com/zhouzirui/emotibot/backend/internal/service/auth"
	"github.com/zhouzirui/emotibot/backend/internal/service/chat"
	"github.com/zhouzirui/emotibot/backend/internal/service/session"
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

	store, provider, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: failed to close store: %v", err)
		}
	}()
	log.Printf("using %s store", cfg.Store.Driver)

	backends, err := newBackends(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize model backends: %v", err)
	}
	emotionSvc := backends.emotionService(cfg.Inference.Threshold)
	aiSvc := backends.aiService()
	log.Printf("emotion classifier: %s, response generator: %s", emotionSvc.Backend(), aiSvc.Backend())
	if !aiSvc.Enabled() {
		log.Println("未配置回复生成模型，发送消息将返回 503")
	}

	authSvc := auth.NewService(provider, store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	sessionSvc := session.NewService(cfg.Auth.TokenTTL)
	chatSvc := chat.NewService(emotionSvc, aiSvc, authSvc, sessionSvc)

	router := handler.NewRouter(handler.Services{
		Auth:     authSvc,
		Sessions: sessionSvc,
		Emotions: emotionSvc,
		AI:       aiSvc,
		Chat:     chatSvc,
		Store:    cfg.Store.Driver,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("EmotiBot backend listening on %s", addr)
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
