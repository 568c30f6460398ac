package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
	"github.com/Soham7126/CloseSync-sub001/internal/service/availability"
	"github.com/Soham7126/CloseSync-sub001/internal/service/status"
)

type availabilityService interface {
	FindAvailableSlots(ctx context.Context, q availability.Query) ([]domain.AvailableSlot, error)
	FindMeetingSlot(ctx context.Context, userIDs []string, durationMinutes int) (*domain.AvailableSlot, error)
	CheckAvailability(ctx context.Context, userIDs []string, start, end time.Time) (domain.ConflictResult, error)
}

type statusService interface {
	Report(ctx context.Context, in status.ReportInput) (domain.BusyBlock, error)
	List(ctx context.Context, userID string) ([]domain.BusyBlock, error)
	Delete(ctx context.Context, userID string, blockID uuid.UUID) error
	SyncCalendar(ctx context.Context, userID string, events []status.CalendarEvent) ([]domain.BusyBlock, error)
}

type Server struct {
	router       *mux.Router
	log          *slog.Logger
	availability availabilityService
	status       statusService
}

func NewServer(availabilitySvc availabilityService, statusSvc statusService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		router:       mux.NewRouter().PathPrefix("/api").Subrouter(),
		log:          log.With(slog.String("component", "http")),
		availability: availabilitySvc,
		status:       statusSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	s.router.HandleFunc("/availability/slots", s.findSlots).Methods(http.MethodPost)
	s.router.HandleFunc("/availability/meeting-slot", s.findMeetingSlot).Methods(http.MethodPost)
	s.router.HandleFunc("/availability/check", s.checkAvailability).Methods(http.MethodPost)

	s.router.HandleFunc("/users/{id}/busy-blocks", s.reportBlock).Methods(http.MethodPost)
	s.router.HandleFunc("/users/{id}/busy-blocks", s.listBlocks).Methods(http.MethodGet)
	s.router.HandleFunc("/users/{id}/busy-blocks/{blockID}", s.deleteBlock).Methods(http.MethodDelete)
	s.router.HandleFunc("/users/{id}/calendar", s.syncCalendar).Methods(http.MethodPut)
}

func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", "Idempotency-Key"}),
	)
	return cors(handlers.RecoveryHandler()(s.router))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", slog.Any("err", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, msg string) {
	s.writeJSON(w, statusCode, map[string]string{"error": msg})
}

func idempotencyKey(r *http.Request) string {
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return r.Header.Get("X-Idempotency-Key")
}
