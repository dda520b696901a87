package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nlamprou/marvin/internal/agent"
	"github.com/nlamprou/marvin/internal/config"
	"github.com/nlamprou/marvin/internal/handler"
	"github.com/nlamprou/marvin/internal/natsbus"
	"github.com/nlamprou/marvin/internal/orchestrator"
	"github.com/nlamprou/marvin/internal/scheduler"
	"github.com/nlamprou/marvin/internal/store"
	"github.com/nlamprou/marvin/internal/taskspec"
	"github.com/nlamprou/marvin/internal/vault"
	"github.com/nlamprou/marvin/internal/web"
)

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting marvin", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", cfg.NATS.Port)

	busClient, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("init nats client: %w", err)
	}
	defer busClient.Close()

	// Credential vault
	var v *vault.Vault
	if cfg.Vault.Passphrase != "" {
		v = vault.New(cfg.Vault.Passphrase)
	} else {
		slog.Warn("vault passphrase not set, secrets disabled")
	}

	creds, err := loadCredentials(db, v)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	// Task set and handlers
	registry := taskspec.Defaults()
	executors := buildExecutors(registry, cfg, creds)

	// Orchestrator
	orch := orchestrator.New(cfg.Assistant, registry, executors, db, busClient)
	orch.StartReaper(ctx, time.Minute)

	// Scheduler for routines
	sched := scheduler.New(db, orch, bus, cfg.Scheduler)
	go sched.Start(ctx)

	// Web gateway
	if cfg.Web.Enabled {
		srv := web.NewServer(db, bus, orch, registry, v, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}

// buildExecutors wires one executor per registered task. The handlers are
// local simulations with the payload contract a real integration would keep.
func buildExecutors(registry *taskspec.Registry, cfg *config.Config, creds handler.Credentials) map[string]*agent.Executor {
	timeout := cfg.Assistant.TaskTimeout

	handlers := map[string]agent.Handler{
		taskspec.TaskSendEmail:       handler.NewEmailService(cfg.Assistant.SenderName, creds),
		taskspec.TaskScheduleMeeting: handler.NewCalendarService(creds),
		taskspec.TaskSearchWeb:       handler.NewWebSearch(creds),
		taskspec.TaskCreateContent:   handler.NewContentWriter(),
		taskspec.TaskFindContact:     handler.NewContactDirectory(cfg.Contacts),
	}

	executors := make(map[string]*agent.Executor, len(handlers))
	for _, id := range registry.IDs() {
		h, ok := handlers[id]
		if !ok {
			slog.Warn("task has no handler, skipping", "task", id)
			continue
		}
		spec, _ := registry.Get(id)
		executors[id] = agent.NewExecutor(spec, h, timeout)
	}
	return executors
}

// loadCredentials decrypts every stored secret into a name -> value map
// for the handlers. Without a vault the map stays empty.
func loadCredentials(db *store.Store, v *vault.Vault) (handler.Credentials, error) {
	creds := make(handler.Credentials)
	if v == nil {
		return creds, nil
	}

	metas, err := db.ListSecrets()
	if err != nil {
		return nil, err
	}
	for _, meta := range metas {
		sec, err := db.GetSecret(meta.ID)
		if err != nil {
			return nil, err
		}
		if sec == nil {
			continue
		}
		plaintext, err := v.Decrypt(sec.Value, sec.Nonce)
		if err != nil {
			slog.Warn("secret does not decrypt with this passphrase, skipping", "name", sec.Name)
			continue
		}
		creds[sec.Name] = string(plaintext)
	}
	return creds, nil
}
