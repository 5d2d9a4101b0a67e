package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"solarrec/internal/api"
	"solarrec/internal/config"
	"solarrec/internal/logging"
	"solarrec/internal/services"
)

const maxUploadBytes = 2 << 30

type apiServer struct {
	bind    string
	logger  *slog.Logger
	service *api.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, service *api.Service, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || service == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		service: service,
	}
	srv.server = &http.Server{
		Handler:           authMiddleware(strings.TrimSpace(cfg.Paths.APIToken), srv.routes()),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/recordings", s.handleCreate)
	mux.HandleFunc("POST /api/recordings/dual", s.handleCreate)
	mux.HandleFunc("GET /api/recordings", s.handleList)
	mux.HandleFunc("GET /api/recordings/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/recordings/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/recordings/{id}/stages/{stage}", s.handleRunStage)
	mux.HandleFunc("POST /api/recordings/{id}/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/recordings/{id}/sync", s.handleSync)
	mux.HandleFunc("GET /api/recordings/{id}/sync", s.handleSyncStatus)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleCreate ingests a multipart upload. The "video" part is required; a
// "microphone" part makes the capture dual-track. Processing starts in the
// background, so the response returns as soon as the files land.
func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart form required: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	primary, _, err := r.FormFile("video")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "video part required")
		return
	}
	defer primary.Close()

	req := api.CreateRecordingRequest{
		DisplayName: r.FormValue("display_name"),
		Primary:     primary,
	}
	if raw := strings.TrimSpace(r.FormValue("duration_seconds")); raw != "" {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds >= 0 {
			req.DurationSeconds = seconds
		}
	}
	if microphone, _, err := r.FormFile("microphone"); err == nil {
		defer microphone.Close()
		req.Microphone = microphone
	}

	view, err := s.service.CreateRecording(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recordings": views})
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecording(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *apiServer) handleRunStage(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RunStage(r.Context(), r.PathValue("id"), r.PathValue("stage")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *apiServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetLanguage string `json:"target_language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := s.service.RequestTranslation(r.Context(), r.PathValue("id"), body.TargetLanguage)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Metadata map[string]any `json:"metadata"`
	}
	if r.Body != nil {
		// An empty body means no extra metadata.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	outcome, err := s.service.SyncToCore(r.Context(), r.PathValue("id"), body.Metadata)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if outcome.Status != "synced" {
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, outcome)
}

func (s *apiServer) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetSyncStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnreachable), errors.Is(err, services.ErrDeliveryRejected):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, services.ErrTimeout):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
