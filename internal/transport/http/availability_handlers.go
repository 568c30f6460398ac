package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
	"github.com/Soham7126/CloseSync-sub001/internal/service/availability"
)

type slotJSON struct {
	Start            string   `json:"start"`
	End              string   `json:"end"`
	Duration         int      `json:"duration"`
	ParticipantsFree []string `json:"participants_free"`
}

func toSlotJSON(s domain.AvailableSlot) slotJSON {
	return slotJSON{
		Start:            s.Start.UTC().Format(time.RFC3339),
		End:              s.End.UTC().Format(time.RFC3339),
		Duration:         s.DurationMinutes,
		ParticipantsFree: s.ParticipantsFree,
	}
}

type findSlotsRequest struct {
	UserIDs           []string `json:"user_ids"`
	MinDuration       int      `json:"min_duration"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	WorkingHoursStart int      `json:"working_hours_start"`
	WorkingHoursEnd   int      `json:"working_hours_end"`
}

func (s *Server) findSlots(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "findSlots"))

	var req findSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_start_date"))
		s.writeError(w, http.StatusBadRequest, "start_date must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_end_date"))
		s.writeError(w, http.StatusBadRequest, "end_date must be an RFC 3339 timestamp")
		return
	}

	slots, err := s.availability.FindAvailableSlots(r.Context(), availability.Query{
		UserIDs:            req.UserIDs,
		MinDurationMinutes: req.MinDuration,
		StartDate:          start,
		EndDate:            end,
		WorkingHoursStart:  req.WorkingHoursStart,
		WorkingHoursEnd:    req.WorkingHoursEnd,
	})
	if err != nil {
		var vErr *availability.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("slot search failed", slog.Any("err", err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]slotJSON, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotJSON(slot))
	}

	log.Info("slots found", slog.Int("count", len(out)), slog.Int("users", len(req.UserIDs)))
	s.writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

type meetingSlotRequest struct {
	UserIDs  []string `json:"user_ids"`
	Duration int      `json:"duration"`
}

func (s *Server) findMeetingSlot(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "findMeetingSlot"))

	var req meetingSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, err := s.availability.FindMeetingSlot(r.Context(), req.UserIDs, req.Duration)
	if err != nil {
		var vErr *availability.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("meeting slot search failed", slog.Any("err", err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if slot == nil {
		log.Info("no meeting slot", slog.Int("users", len(req.UserIDs)), slog.Int("duration", req.Duration))
		s.writeJSON(w, http.StatusOK, map[string]any{"slot": nil})
		return
	}

	log.Info(
		"meeting slot found",
		slog.Time("start", slot.Start),
		slog.Time("end", slot.End),
		slog.Int("users", len(req.UserIDs)),
	)
	s.writeJSON(w, http.StatusOK, map[string]any{"slot": toSlotJSON(*slot)})
}

type checkAvailabilityRequest struct {
	UserIDs []string `json:"user_ids"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
}

type conflictJSON struct {
	Available        bool     `json:"available"`
	ConflictingUsers []string `json:"conflicting_users"`
}

func (s *Server) checkAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "checkAvailability"))

	var req checkAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_start"))
		s.writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_end"))
		s.writeError(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
		return
	}

	result, err := s.availability.CheckAvailability(r.Context(), req.UserIDs, start, end)
	if err != nil {
		var vErr *availability.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err))
			s.writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("availability check failed", slog.Any("err", err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info(
		"availability checked",
		slog.Bool("available", result.Available),
		slog.Int("conflicting", len(result.ConflictingUsers)),
	)
	s.writeJSON(w, http.StatusOK, conflictJSON{
		Available:        result.Available,
		ConflictingUsers: result.ConflictingUsers,
	})
}
