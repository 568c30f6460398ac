package availability

import (
	"context"
	"log/slog"
	"time"

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

// Defaults feeds FindMeetingSlot when the caller supplies only a group and a
// duration.
type Defaults struct {
	WindowDays        int
	WorkingHoursStart int
	WorkingHoursEnd   int
}

type Service struct {
	repo     store.BusyBlockRepository
	log      *slog.Logger
	now      func() time.Time
	defaults Defaults
}

func NewService(repo store.BusyBlockRepository, log *slog.Logger, defaults Defaults) *Service {
	if log == nil {
		log = slog.Default()
	}
	if defaults.WindowDays < 1 {
		defaults.WindowDays = 7
	}
	if defaults.WorkingHoursStart == 0 && defaults.WorkingHoursEnd == 0 {
		defaults.WorkingHoursStart = 9
		defaults.WorkingHoursEnd = 18
	}
	return &Service{
		repo:     repo,
		log:      log.With(slog.String("component", "service.availability")),
		now:      time.Now,
		defaults: defaults,
	}
}

type Query struct {
	UserIDs            []string
	MinDurationMinutes int
	StartDate          time.Time
	EndDate            time.Time
	WorkingHoursStart  int
	WorkingHoursEnd    int
}

// FindAvailableSlots returns every working-hours gap of at least the
// requested length during which all listed users are simultaneously free.
// An empty user list yields an empty result.
func (s *Service) FindAvailableSlots(ctx context.Context, q Query) ([]domain.AvailableSlot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if len(q.UserIDs) == 0 {
		return []domain.AvailableSlot{}, nil
	}

	start := q.StartDate.UTC()
	end := q.EndDate.UTC()

	blocks, err := s.repo.ListForUsers(ctx, q.UserIDs)
	if err != nil {
		return nil, err
	}

	byUser := s.normalizeBlocks(blocks, start, end)

	return domain.AvailableSlots(byUser, domain.SlotQuery{
		UserIDs:            q.UserIDs,
		MinDurationMinutes: q.MinDurationMinutes,
		StartDate:          start,
		EndDate:            end,
		WorkingHoursStart:  q.WorkingHoursStart,
		WorkingHoursEnd:    q.WorkingHoursEnd,
	}), nil
}

// FindMeetingSlot returns the first slot long enough for the group within the
// configured default window and working hours, or nil when there is none.
func (s *Service) FindMeetingSlot(ctx context.Context, userIDs []string, durationMinutes int) (*domain.AvailableSlot, error) {
	start := s.now().UTC()
	slots, err := s.FindAvailableSlots(ctx, Query{
		UserIDs:            userIDs,
		MinDurationMinutes: durationMinutes,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, s.defaults.WindowDays),
		WorkingHoursStart:  s.defaults.WorkingHoursStart,
		WorkingHoursEnd:    s.defaults.WorkingHoursEnd,
	})
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}

// CheckAvailability reports whether any of the listed users is busy during
// [start, end), and which ones.
func (s *Service) CheckAvailability(ctx context.Context, userIDs []string, start, end time.Time) (domain.ConflictResult, error) {
	startUTC := start.UTC()
	endUTC := end.UTC()
	if endUTC.Equal(startUTC) || endUTC.Before(startUTC) {
		return domain.ConflictResult{}, validationError("end must be after start")
	}
	if len(userIDs) == 0 {
		return domain.ConflictResult{Available: true, ConflictingUsers: []string{}}, nil
	}

	blocks, err := s.repo.ListForUsers(ctx, userIDs)
	if err != nil {
		return domain.ConflictResult{}, err
	}

	byUser := s.normalizeBlocks(blocks, startUTC, endUTC)

	return domain.CheckConflicts(userIDs, byUser, startUTC, endUTC), nil
}

// normalizeBlocks resolves every user's raw blocks against the query window.
// Malformed blocks are skipped with a warning so the rest of that user's
// schedule still counts.
func (s *Service) normalizeBlocks(blocks map[string][]domain.BusyBlock, referenceDate, windowEnd time.Time) map[string][]domain.TimeInterval {
	byUser := make(map[string][]domain.TimeInterval, len(blocks))
	for userID, userBlocks := range blocks {
		intervals := make([]domain.TimeInterval, 0, len(userBlocks))
		for _, b := range userBlocks {
			iv, ok, err := domain.NormalizeBusyBlock(b, referenceDate, windowEnd)
			if err != nil {
				s.log.Warn(
					"skipping malformed busy block",
					slog.String("user_id", userID),
					slog.String("block_id", b.ID.String()),
					slog.Any("err", err),
				)
				continue
			}
			if !ok {
				continue
			}
			intervals = append(intervals, iv)
		}
		byUser[userID] = intervals
	}
	return byUser
}

func validateQuery(q Query) error {
	if q.MinDurationMinutes < 1 {
		return validationError("min_duration must be at least 1 minute")
	}
	if q.WorkingHoursStart < 0 || q.WorkingHoursStart > 23 {
		return validationError("working_hours_start must be within 0..23")
	}
	if q.WorkingHoursEnd < 0 || q.WorkingHoursEnd > 23 {
		return validationError("working_hours_end must be within 0..23")
	}
	if q.WorkingHoursStart >= q.WorkingHoursEnd {
		return validationError("working_hours_end must be after working_hours_start")
	}
	end := q.EndDate.UTC()
	start := q.StartDate.UTC()
	if end.Equal(start) || end.Before(start) {
		return validationError("end_date must be after start_date")
	}
	return nil
}
