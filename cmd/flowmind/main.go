// Package main is FlowMind's entry point: wire config, the shared
// stores, the LLM service, the tool registry, the bootstrap rule set,
// persistence, and the scheduler, then run until an interrupt signal
// triggers cooperative shutdown.
//
// Environment variables:
//   - FLOWMIND_CONFIG_FILE: path to a JSON config file (optional; see
//     internal/config for the full FLOWMIND_<SECTION>_<KEY> surface)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automenta/flowmind/internal/bootstrap"
	"github.com/automenta/flowmind/internal/builtin"
	"github.com/automenta/flowmind/internal/config"
	"github.com/automenta/flowmind/internal/executor"
	"github.com/automenta/flowmind/internal/llm"
	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/persistence"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/scheduler"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	log.Printf("Loaded config: %d workers, ollama model %q at %s", cfg.NumWorkers, cfg.OllamaModel, cfg.OllamaAPIBaseURL)

	llmClient := llm.NewClient(llm.Config{
		Model:   cfg.OllamaModel,
		BaseURL: cfg.OllamaAPIBaseURL,
		Timeout: 30 * time.Second,
	})
	log.Println("Initialized LLM client")

	thoughts := thought.NewStore()
	rules := rule.NewStore(llmClient)
	memories, err := memory.NewStore("", llmClient)
	if err != nil {
		log.Fatalf("Failed to initialize memory store: %v", err)
	}
	defer memories.Close()
	log.Println("Initialized thought, rule, and memory stores")

	registry := tool.NewRegistry(llmClient)
	builtin.Register(registry, llmClient, memories, thoughts, cfg.MemorySearchLimit)
	bootstrap.Seed(rules, registry)
	log.Printf("Registered tools: %v", registry.List())

	exec := executor.New(thoughts, rules, registry, memories)

	store, err := persistence.Open(cfg.PersistenceFilePath, thoughts, rules, memories)
	if err != nil {
		log.Fatalf("Failed to open persistence store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore from persistence: %v", err)
	}
	log.Printf("Restored %d thoughts, %d rules, %d memory entries", len(thoughts.All()), len(rules.All()), len(memories.All()))

	sched := scheduler.New(cfg, thoughts, rules, exec, store)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting %d workers", cfg.NumWorkers)
	sched.Run(runCtx)
	log.Println("Shutdown complete")
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("FLOWMIND_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load(), nil
}
