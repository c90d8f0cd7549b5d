package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scout/internal/agent"
	"scout/internal/config"
	"scout/internal/db"
	"scout/internal/httpapi"
	"scout/internal/llm"
	"scout/internal/logging"
	"scout/internal/memory"
	"scout/internal/research"
	"scout/internal/tools"
	"scout/internal/websearch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	database, err := db.Open(cfg.MemoryDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	store := memory.NewStore(database, cfg.MemoryMaxEntries)

	llmClient, err := llm.NewClientFromConfig(cfg, nil, log)
	if err != nil {
		log.Fatalf("build llm client: %v", err)
	}

	searcher := websearch.NewClient(cfg, nil)
	registry := tools.NewRegistry(
		tools.NewWebSearchTool(searcher, log, cfg.DefaultMaxSources),
		tools.NewNewsSearchTool(searcher, log, cfg.DefaultMaxSources),
		tools.NewTextAnalyzerTool(llmClient, log),
		tools.NewReadPageTool(nil, log),
	)

	executor := agent.NewExecutor(llmClient, registry, log, cfg.AgentMaxIterations)
	orchestrator := research.NewOrchestrator(agent.NewResearchExecutor(executor), store, log)

	handler := httpapi.NewHandler(orchestrator, store, llmClient, registry.Names(), cfg.AgentTimeout, log)
	router := httpapi.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AgentTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("api listening on %s", cfg.ListenAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown error: %v", err)
	}
}
