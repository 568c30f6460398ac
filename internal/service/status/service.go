package status

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
	"github.com/Soham7126/CloseSync-sub001/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo store.BusyBlockRepository
	log  *slog.Logger
}

func NewService(repo store.BusyBlockRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "service.status")),
	}
}

type ReportInput struct {
	UserID         string
	Start          string
	End            string
	Label          string
	Source         domain.BlockSource
	IdempotencyKey string
}

// Report stores one busy block from a status update. Start and End keep the
// reported form ("HH:MM" or a full timestamp) but must parse; a block that
// cannot be resolved later is rejected here instead of silently degrading
// availability queries.
func (s *Service) Report(ctx context.Context, in ReportInput) (domain.BusyBlock, error) {
	if in.UserID == "" {
		return domain.BusyBlock{}, validationError("user_id is required")
	}

	start := strings.TrimSpace(in.Start)
	end := strings.TrimSpace(in.End)
	if start == "" || end == "" {
		return domain.BusyBlock{}, validationError("start and end are required")
	}
	if err := domain.ValidateBlockTimes(start, end); err != nil {
		return domain.BusyBlock{}, validationError(err.Error())
	}

	source := in.Source
	if source == "" {
		source = domain.BlockSourceVoice
	}
	if source != domain.BlockSourceVoice && source != domain.BlockSourceCalendar {
		return domain.BusyBlock{}, validationError("source must be voice or calendar")
	}

	label := strings.TrimSpace(in.Label)
	if len(label) > 256 {
		return domain.BusyBlock{}, validationError("label too long")
	}

	block := domain.BusyBlock{
		UserID: in.UserID,
		Start:  start,
		End:    end,
		Label:  label,
		Source: source,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.BusyBlock{}, validationError("idempotency_key too long")
		}
		block.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("closesync:report_block:"+in.UserID+":"+key))
	}

	return s.repo.Create(ctx, block)
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.BusyBlock, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID string, blockID uuid.UUID) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if blockID == uuid.Nil {
		return validationError("block_id is required")
	}
	return s.repo.Delete(ctx, userID, blockID)
}

// CalendarEvent is one synced event from an external calendar. Times are
// absolute; wall-clock blocks only come from status updates.
type CalendarEvent struct {
	Start time.Time
	End   time.Time
	Label string
}

// SyncCalendar replaces the user's calendar-sourced blocks with the supplied
// event list. Voice-reported blocks are untouched.
func (s *Service) SyncCalendar(ctx context.Context, userID string, events []CalendarEvent) ([]domain.BusyBlock, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}

	blocks := make([]domain.BusyBlock, 0, len(events))
	for _, ev := range events {
		start := ev.Start.UTC()
		end := ev.End.UTC()
		if end.Equal(start) || end.Before(start) {
			return nil, validationError("event end must be after event start")
		}
		blocks = append(blocks, domain.BusyBlock{
			UserID: userID,
			Start:  start.Format(time.RFC3339),
			End:    end.Format(time.RFC3339),
			Label:  strings.TrimSpace(ev.Label),
			Source: domain.BlockSourceCalendar,
		})
	}

	out, err := s.repo.ReplaceSource(ctx, userID, domain.BlockSourceCalendar, blocks)
	if err != nil {
		return nil, err
	}

	s.log.Info(
		"calendar synced",
		slog.String("user_id", userID),
		slog.Int("events", len(out)),
	)
	return out, nil
}
