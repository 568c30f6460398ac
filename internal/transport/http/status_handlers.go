package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
	"github.com/Soham7126/CloseSync-sub001/internal/service/status"
	"github.com/Soham7126/CloseSync-sub001/internal/store"
)

type blockJSON struct {
	ID        string `json:"id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Label     string `json:"label,omitempty"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

func toBlockJSON(b domain.BusyBlock) blockJSON {
	return blockJSON{
		ID:        b.ID.String(),
		Start:     b.Start,
		End:       b.End,
		Label:     b.Label,
		Source:    string(b.Source),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type reportBlockRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

func (s *Server) reportBlock(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "reportBlock"))
	userID := mux.Vars(r)["id"]

	var req reportBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"), slog.String("user_id", userID))
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	block, err := s.status.Report(r.Context(), status.ReportInput{
		UserID:         userID,
		Start:          req.Start,
		End:            req.End,
		Label:          req.Label,
		Source:         domain.BlockSource(req.Source),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		if errors.Is(err, store.ErrIdempotencyConflict) {
			log.Info("busy block idempotency conflict", slog.String("user_id", userID))
			s.writeError(w, http.StatusConflict, "This request key was already used for a different busy block. Try again.")
			return
		}
		var vErr *status.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.String("user_id", userID))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("busy block create failed", slog.Any("err", err), slog.String("user_id", userID))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info(
		"busy block reported",
		slog.String("block_id", block.ID.String()),
		slog.String("user_id", block.UserID),
		slog.String("source", string(block.Source)),
	)
	s.writeJSON(w, http.StatusCreated, map[string]any{"busy_block": toBlockJSON(block)})
}

func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "listBlocks"))
	userID := mux.Vars(r)["id"]

	blocks, err := s.status.List(r.Context(), userID)
	if err != nil {
		var vErr *status.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.String("user_id", userID))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("busy block list failed", slog.Any("err", err), slog.String("user_id", userID))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]blockJSON, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toBlockJSON(b))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"busy_blocks": out})
}

func (s *Server) deleteBlock(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "deleteBlock"))
	vars := mux.Vars(r)
	userID := vars["id"]

	blockID, err := uuid.Parse(vars["blockID"])
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("user_id", userID))
		s.writeError(w, http.StatusBadRequest, "block id must be a UUID")
		return
	}

	if err := s.status.Delete(r.Context(), userID, blockID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("busy block not found", slog.String("block_id", blockID.String()), slog.String("user_id", userID))
			s.writeError(w, http.StatusNotFound, "busy block not found")
			return
		}
		var vErr *status.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.String("user_id", userID))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("busy block delete failed", slog.Any("err", err), slog.String("block_id", blockID.String()), slog.String("user_id", userID))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("busy block deleted", slog.String("block_id", blockID.String()), slog.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

type calendarEventJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

type syncCalendarRequest struct {
	Events []calendarEventJSON `json:"events"`
}

func (s *Server) syncCalendar(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "syncCalendar"))
	userID := mux.Vars(r)["id"]

	var req syncCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"), slog.String("user_id", userID))
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events := make([]status.CalendarEvent, 0, len(req.Events))
	for _, ev := range req.Events {
		start, err := time.Parse(time.RFC3339, ev.Start)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "bad_event_start"), slog.String("user_id", userID))
			s.writeError(w, http.StatusBadRequest, "event start must be an RFC 3339 timestamp")
			return
		}
		end, err := time.Parse(time.RFC3339, ev.End)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "bad_event_end"), slog.String("user_id", userID))
			s.writeError(w, http.StatusBadRequest, "event end must be an RFC 3339 timestamp")
			return
		}
		events = append(events, status.CalendarEvent{Start: start, End: end, Label: ev.Label})
	}

	blocks, err := s.status.SyncCalendar(r.Context(), userID, events)
	if err != nil {
		var vErr *status.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.String("user_id", userID))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("calendar sync failed", slog.Any("err", err), slog.String("user_id", userID))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]blockJSON, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toBlockJSON(b))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"busy_blocks": out})
}
