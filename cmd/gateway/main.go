// Command gateway serves the lending API: it proxies agent streams,
// brokers file functions and runs server-side stream sessions.
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

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/agentcore"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/lambda"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/config"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/hub"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/policy"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/repository"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
	transporthttp "github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/transport/http"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	debug := cfg.LogLevel == "debug"
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	baseURL := cfg.AgentBaseURL
	if baseURL == "" {
		baseURL = agentcore.RegionalBaseURL(cfg.Region)
	}

	log.Printf("Starting gateway...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Agent runtime: %s (%s)", baseURL, cfg.Mode)

	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	runtime := agentcore.NewRuntime(cfg.Mode, baseURL, cfg.AgentARN, cfg.AgentTimeout)

	ctx := context.Background()
	var invoker lambda.Invoker
	if cfg.FilesLambdaARN == "" {
		log.Printf("WARN: FILES_LAMBDA_ARN not set, file endpoints disabled")
	} else if client, err := lambda.NewClient(ctx, cfg.Region); err != nil {
		log.Printf("WARN: failed to load AWS config, file endpoints disabled: %v", err)
	} else {
		invoker = client
	}

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	h := hub.NewHub()
	go h.Run()

	svc := service.New(db, runtime, invoker, policyEngine, h, cfg)
	wsServer := ws.NewServer(cfg, h, svc)
	e := transporthttp.NewServer(svc, h, wsServer)
	e.Debug = debug

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Gateway started on port %d", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: failed to shutdown server gracefully: %v", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: failed to stop streams: %v", err)
	}
	h.Stop()

	log.Println("Gateway stopped")
}
