package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nlamprou/marvin/internal/schedule"
	"github.com/nlamprou/marvin/internal/store"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Conversation
	mux.HandleFunc("POST /api/turn", s.handleTurn)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}/turns", s.getSessionTurns)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)

	// Task catalog
	mux.HandleFunc("GET /api/tasks", s.listTasks)

	// Routines
	mux.HandleFunc("GET /api/routines", s.listRoutines)
	mux.HandleFunc("POST /api/routines", s.createRoutine)
	mux.HandleFunc("PUT /api/routines/{id}", s.updateRoutine)
	mux.HandleFunc("DELETE /api/routines/{id}", s.deleteRoutine)

	// Secrets
	mux.HandleFunc("GET /api/secrets", s.listSecrets)
	mux.HandleFunc("POST /api/secrets", s.createSecret)
	mux.HandleFunc("DELETE /api/secrets/{id}", s.deleteSecret)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		Input     string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Input == "" {
		jsonError(w, "input is required", http.StatusBadRequest)
		return
	}

	out, err := s.orch.HandleInput(r.Context(), body.SessionID, body.Input)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, out)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []store.SessionRow{}
	}
	jsonResponse(w, sessions)
}

func (s *Server) getSessionTurns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	turns, err := s.store.GetTurns(id, limit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if turns == nil {
		turns = []store.Turn{}
	}
	jsonResponse(w, turns)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTurns(id); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.store.DeleteSession(id); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0)
	for _, id := range s.registry.IDs() {
		spec, _ := s.registry.Get(id)
		required := make([]string, 0, len(spec.Required))
		for _, f := range spec.Required {
			required = append(required, f.Name)
		}
		out = append(out, map[string]any{
			"id":       id,
			"required": required,
			"optional": spec.Optional,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) listRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := s.store.ListRoutines()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(routines))
	for _, rt := range routines {
		out = append(out, map[string]any{
			"id":          rt.ID,
			"name":        rt.Name,
			"schedule":    rt.Schedule,
			"describes":   schedule.Describe(rt.Schedule),
			"prompt":      rt.Prompt,
			"status":      rt.Status,
			"next_run_at": rt.NextRunAt,
			"last_run_at": rt.LastRunAt,
			"last_status": rt.LastStatus,
			"last_error":  rt.LastError,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) createRoutine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Schedule string `json:"schedule"`
		Prompt   string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Schedule == "" || body.Prompt == "" {
		jsonError(w, "name, schedule and prompt are required", http.StatusBadRequest)
		return
	}

	normalized, err := schedule.Normalize(body.Schedule)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rt := &store.Routine{
		ID:        uuid.NewString(),
		Name:      body.Name,
		Schedule:  normalized,
		Prompt:    body.Prompt,
		Status:    "active",
		NextRunAt: schedule.NextRun(normalized),
	}
	if err := s.store.SaveRoutine(rt); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, rt)
}

func (s *Server) updateRoutine(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rt, err := s.store.GetRoutine(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rt == nil {
		jsonError(w, "routine not found", http.StatusNotFound)
		return
	}

	var body struct {
		Name     *string `json:"name"`
		Schedule *string `json:"schedule"`
		Prompt   *string `json:"prompt"`
		Status   *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if body.Name != nil {
		rt.Name = *body.Name
	}
	if body.Prompt != nil {
		rt.Prompt = *body.Prompt
	}
	if body.Status != nil {
		rt.Status = *body.Status
	}
	if body.Schedule != nil {
		normalized, err := schedule.Normalize(*body.Schedule)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		rt.Schedule = normalized
		rt.NextRunAt = schedule.NextRun(normalized)
	}

	if err := s.store.SaveRoutine(rt); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, rt)
}

func (s *Server) deleteRoutine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRoutine(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request) {
	secrets, err := s.store.ListSecrets()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if secrets == nil {
		secrets = []store.Secret{}
	}
	jsonResponse(w, secrets)
}

func (s *Server) createSecret(w http.ResponseWriter, r *http.Request) {
	if s.vault == nil {
		jsonError(w, "vault is not configured", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Value       string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Value == "" {
		jsonError(w, "name and value are required", http.StatusBadRequest)
		return
	}

	ciphertext, nonce, err := s.vault.Encrypt([]byte(body.Value))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sec := &store.Secret{
		ID:          uuid.NewString(),
		Name:        body.Name,
		Description: body.Description,
		Value:       ciphertext,
		Nonce:       nonce,
	}
	if err := s.store.SaveSecret(sec); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"id": sec.ID, "name": sec.Name})
}

func (s *Server) deleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSecret(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"version": s.version,
		"tasks":   s.registry.IDs(),
		"time":    time.Now().UTC(),
	}
	if s.bus != nil {
		status["nats_url"] = s.bus.ClientURL()
	}
	jsonResponse(w, status)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
