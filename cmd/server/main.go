package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chat-relay/internal/config"
	"chat-relay/internal/llm"
	"chat-relay/internal/scheduler"
	"chat-relay/internal/server"
	"chat-relay/internal/session"
	"chat-relay/internal/storage"
	"chat-relay/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close session store: %v", err)
		}
	}()

	llmClient := llm.NewOpenAI(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		cfg.OpenAIModel,
		time.Duration(cfg.ProviderTimeoutSeconds)*time.Second,
	)

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)

	svc := session.New(store, llmClient, systemPrompt, cfg.ContextWindowSize)

	if cfg.SessionRetentionDays > 0 {
		retention := time.Duration(cfg.SessionRetentionDays) * 24 * time.Hour
		sched := scheduler.New(func(ctx context.Context) (int, error) {
			return store.PurgeIdle(ctx, time.Now().Add(-retention))
		})
		if err := sched.Start(cfg.CleanupSchedule); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.New(cfg.TelegramBotToken, svc)
		if err != nil {
			log.Fatalf("failed to create telegram bot: %v", err)
		}
		go bot.Start(ctx)
	}

	srv := server.New(svc, cfg.AllowedOrigins)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()
	log.Printf("Server running on port %d", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
