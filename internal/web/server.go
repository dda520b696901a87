// Package web exposes the assistant over HTTP: a turn endpoint, session
// transcripts, routine and secret management, and a websocket event feed.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nlamprou/marvin/internal/config"
	"github.com/nlamprou/marvin/internal/natsbus"
	"github.com/nlamprou/marvin/internal/orchestrator"
	"github.com/nlamprou/marvin/internal/store"
	"github.com/nlamprou/marvin/internal/taskspec"
	"github.com/nlamprou/marvin/internal/vault"
)

type Server struct {
	store    *store.Store
	bus      *natsbus.Bus
	nats     *natsbus.Client
	orch     *orchestrator.Orchestrator
	registry *taskspec.Registry
	vault    *vault.Vault
	hub      *Hub
	cfg      config.WebConfig
	version  string
}

func NewServer(s *store.Store, bus *natsbus.Bus, orch *orchestrator.Orchestrator, reg *taskspec.Registry, v *vault.Vault, cfg config.WebConfig, version string) *Server {
	return &Server{
		store:    s,
		bus:      bus,
		orch:     orch,
		registry: reg,
		vault:    v,
		hub:      NewHub(),
		cfg:      cfg,
		version:  version,
	}
}

func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	s.subscribeEvents()

	mux := http.NewServeMux()
	s.registerAPI(mux)
	mux.HandleFunc("/api/ws", s.handleWebSocket)

	handler := s.withMiddleware(mux)
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	slog.Info("web server listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/") && s.cfg.Auth != "" {
			if _, pass, ok := r.BasicAuth(); !ok || pass != s.cfg.Auth {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) subscribeEvents() {
	if s.bus == nil {
		return
	}
	client, err := natsbus.NewClient(s.bus)
	if err != nil {
		slog.Error("web server nats client failed", "error", err)
		return
	}
	s.nats = client

	// Forward everything on the event topics to connected websockets.
	_, _ = client.SubscribeEvents(natsbus.TopicEventsAll, s.hub.Broadcast)
}
