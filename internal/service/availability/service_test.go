package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
)

type fakeRepo struct {
	createFn        func(ctx context.Context, block domain.BusyBlock) (domain.BusyBlock, error)
	listForUserFn   func(ctx context.Context, userID string) ([]domain.BusyBlock, error)
	listForUsersFn  func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error)
	deleteFn        func(ctx context.Context, userID string, blockID uuid.UUID) error
	replaceSourceFn func(ctx context.Context, userID string, source domain.BlockSource, blocks []domain.BusyBlock) ([]domain.BusyBlock, error)
}

func (f *fakeRepo) Create(ctx context.Context, block domain.BusyBlock) (domain.BusyBlock, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, block)
}

func (f *fakeRepo) ListForUser(ctx context.Context, userID string) ([]domain.BusyBlock, error) {
	if f.listForUserFn == nil {
		panic("ListForUser not configured")
	}
	return f.listForUserFn(ctx, userID)
}

func (f *fakeRepo) ListForUsers(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
	if f.listForUsersFn == nil {
		panic("ListForUsers not configured")
	}
	return f.listForUsersFn(ctx, userIDs)
}

func (f *fakeRepo) Delete(ctx context.Context, userID string, blockID uuid.UUID) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, userID, blockID)
}

func (f *fakeRepo) ReplaceSource(ctx context.Context, userID string, source domain.BlockSource, blocks []domain.BusyBlock) ([]domain.BusyBlock, error) {
	if f.replaceSourceFn == nil {
		panic("ReplaceSource not configured")
	}
	return f.replaceSourceFn(ctx, userID, source, blocks)
}

func emptyBlocks(userIDs []string) map[string][]domain.BusyBlock {
	out := make(map[string][]domain.BusyBlock, len(userIDs))
	for _, id := range userIDs {
		out[id] = []domain.BusyBlock{}
	}
	return out
}

func validQuery(userIDs ...string) Query {
	return Query{
		UserIDs:            userIDs,
		MinDurationMinutes: 30,
		StartDate:          time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		WorkingHoursStart:  9,
		WorkingHoursEnd:    18,
	}
}

func TestFindAvailableSlots_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, Defaults{})

	tests := []struct {
		name    string
		mutate  func(q *Query)
		wantErr string
	}{
		{
			name:    "min duration below one",
			mutate:  func(q *Query) { q.MinDurationMinutes = 0 },
			wantErr: "min_duration must be at least 1 minute",
		},
		{
			name:    "working hours start out of range",
			mutate:  func(q *Query) { q.WorkingHoursStart = -1 },
			wantErr: "working_hours_start must be within 0..23",
		},
		{
			name:    "working hours end out of range",
			mutate:  func(q *Query) { q.WorkingHoursEnd = 24 },
			wantErr: "working_hours_end must be within 0..23",
		},
		{
			name: "inverted working hours",
			mutate: func(q *Query) {
				q.WorkingHoursStart = 18
				q.WorkingHoursEnd = 9
			},
			wantErr: "working_hours_end must be after working_hours_start",
		},
		{
			name:    "inverted date range",
			mutate:  func(q *Query) { q.EndDate = q.StartDate },
			wantErr: "end_date must be after start_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuery("u1")
			tt.mutate(&q)
			_, err := svc.FindAvailableSlots(context.Background(), q)
			if err == nil {
				t.Fatalf("expected error")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if vErr.Error() != tt.wantErr {
				t.Fatalf("error = %q, want %q", vErr.Error(), tt.wantErr)
			}
		})
	}
}

func TestFindAvailableSlots_EmptyUserIDsSkipsFetch(t *testing.T) {
	// The fake panics on any repo call, so passing proves nothing was fetched.
	svc := NewService(&fakeRepo{}, nil, Defaults{})

	slots, err := svc.FindAvailableSlots(context.Background(), validQuery())
	if err != nil {
		t.Fatalf("FindAvailableSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("len(slots) = %d, want 0", len(slots))
	}
}

func TestFindAvailableSlots_UsesStoredBlocks(t *testing.T) {
	svc := NewService(&fakeRepo{
		listForUsersFn: func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
			return map[string][]domain.BusyBlock{
				"u1": {{Start: "09:00", End: "12:00", Source: domain.BlockSourceVoice}},
			}, nil
		},
	}, nil, Defaults{})

	slots, err := svc.FindAvailableSlots(context.Background(), validQuery("u1"))
	if err != nil {
		t.Fatalf("FindAvailableSlots error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1 (%v)", len(slots), slots)
	}
	wantStart := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if !slots[0].Start.Equal(wantStart) {
		t.Fatalf("slot start = %v, want %v", slots[0].Start, wantStart)
	}
}

func TestFindAvailableSlots_SkipsMalformedBlocks(t *testing.T) {
	svc := NewService(&fakeRepo{
		listForUsersFn: func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
			return map[string][]domain.BusyBlock{
				"u1": {
					{Start: "garbage", End: "more garbage"},
					{Start: "09:00", End: "17:00"},
				},
			}, nil
		},
	}, nil, Defaults{})

	slots, err := svc.FindAvailableSlots(context.Background(), validQuery("u1"))
	if err != nil {
		t.Fatalf("FindAvailableSlots error: %v", err)
	}
	// Only the well-formed block counts: 17:00-18:00 remains free.
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1 (%v)", len(slots), slots)
	}
	wantStart := time.Date(2026, 1, 5, 17, 0, 0, 0, time.UTC)
	if !slots[0].Start.Equal(wantStart) {
		t.Fatalf("slot start = %v, want %v", slots[0].Start, wantStart)
	}
}

func TestFindAvailableSlots_RepeatedCallsAgreeAcrossUserOrder(t *testing.T) {
	blocks := map[string][]domain.BusyBlock{
		"u1": {{Start: "09:00", End: "10:00"}},
		"u2": {{Start: "11:00", End: "12:00"}},
	}
	svc := NewService(&fakeRepo{
		listForUsersFn: func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
			return blocks, nil
		},
	}, nil, Defaults{})

	first, err := svc.FindAvailableSlots(context.Background(), validQuery("u1", "u2"))
	if err != nil {
		t.Fatalf("FindAvailableSlots error: %v", err)
	}
	second, err := svc.FindAvailableSlots(context.Background(), validQuery("u2", "u1"))
	if err != nil {
		t.Fatalf("FindAvailableSlots error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("slot counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Fatalf("slot[%d] times differ across calls: [%v, %v) vs [%v, %v)",
				i, first[i].Start, first[i].End, second[i].Start, second[i].End)
		}
		if first[i].DurationMinutes != second[i].DurationMinutes {
			t.Fatalf("slot[%d] durations differ: %d vs %d", i, first[i].DurationMinutes, second[i].DurationMinutes)
		}
		if first[i].ParticipantsFree[0] != "u1" || second[i].ParticipantsFree[0] != "u2" {
			t.Fatalf("participants must preserve each call's input order: %v / %v",
				first[i].ParticipantsFree, second[i].ParticipantsFree)
		}
	}
}

func TestFindMeetingSlot_UsesDefaults(t *testing.T) {
	var gotIDs []string
	svc := NewService(&fakeRepo{
		listForUsersFn: func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
			gotIDs = userIDs
			return emptyBlocks(userIDs), nil
		},
	}, nil, Defaults{WindowDays: 3, WorkingHoursStart: 9, WorkingHoursEnd: 18})
	svc.now = func() time.Time {
		return time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	}

	slot, err := svc.FindMeetingSlot(context.Background(), []string{"u1", "u2"}, 60)
	if err != nil {
		t.Fatalf("FindMeetingSlot error: %v", err)
	}
	if slot == nil {
		t.Fatalf("expected a slot")
	}
	wantStart := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	if !slot.Start.Equal(wantStart) {
		t.Fatalf("slot start = %v, want %v", slot.Start, wantStart)
	}
	if len(gotIDs) != 2 {
		t.Fatalf("fetched ids = %v, want both users", gotIDs)
	}
}

func TestFindMeetingSlot_NilWhenNothingFits(t *testing.T) {
	svc := NewService(&fakeRepo{
		listForUsersFn: func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
			return emptyBlocks(userIDs), nil
		},
	}, nil, Defaults{WindowDays: 2, WorkingHoursStart: 9, WorkingHoursEnd: 18})
	svc.now = func() time.Time {
		return time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	}

	// No 10-hour stretch fits inside a 9-hour working day.
	slot, err := svc.FindMeetingSlot(context.Background(), []string{"u1"}, 600)
	if err != nil {
		t.Fatalf("FindMeetingSlot error: %v", err)
	}
	if slot != nil {
		t.Fatalf("slot = %v, want nil", slot)
	}
}

func TestCheckAvailability(t *testing.T) {
	svc := NewService(&fakeRepo{
		listForUsersFn: func(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
			return map[string][]domain.BusyBlock{
				"a": {{Start: "09:00", End: "10:00"}},
				"b": {},
			}, nil
		},
	}, nil, Defaults{})

	start := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	end := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)

	result, err := svc.CheckAvailability(context.Background(), []string{"a", "b"}, start, end)
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if result.Available {
		t.Fatalf("expected conflict")
	}
	if len(result.ConflictingUsers) != 1 || result.ConflictingUsers[0] != "a" {
		t.Fatalf("conflicting = %v, want [a]", result.ConflictingUsers)
	}

	result, err = svc.CheckAvailability(context.Background(), []string{"a", "b"}, end, end.Add(time.Hour))
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if !result.Available {
		t.Fatalf("expected no conflict, got %v", result.ConflictingUsers)
	}
}

func TestCheckAvailability_InvalidWindow(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, Defaults{})

	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	_, err := svc.CheckAvailability(context.Background(), []string{"a"}, start, start)
	if err == nil {
		t.Fatalf("expected error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}

func TestCheckAvailability_NoUsersVacuouslyAvailable(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, Defaults{})

	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	result, err := svc.CheckAvailability(context.Background(), nil, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if !result.Available || len(result.ConflictingUsers) != 0 {
		t.Fatalf("result = %v, want available with no conflicts", result)
	}
}
