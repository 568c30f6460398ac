package domain

import (
	"sort"
	"time"
)

// SlotQuery carries the parameters for one availability search. The engine
// assumes the query has already been validated; see the availability service.
type SlotQuery struct {
	UserIDs            []string
	MinDurationMinutes int
	StartDate          time.Time
	EndDate            time.Time
	WorkingHoursStart  int
	WorkingHoursEnd    int
}

// AvailableSlot is a gap that passed the minimum-duration filter.
// ParticipantsFree always lists every queried user, in the order supplied.
type AvailableSlot struct {
	Start            time.Time
	End              time.Time
	DurationMinutes  int
	ParticipantsFree []string
}

type ConflictResult struct {
	Available        bool
	ConflictingUsers []string
}

// MergeBusyIntervals flattens every user's intervals into one anonymous
// timeline and unions them into a minimal sorted set of non-overlapping
// intervals. Exact adjacency merges.
func MergeBusyIntervals(byUser map[string][]TimeInterval) []TimeInterval {
	total := 0
	for _, ivs := range byUser {
		total += len(ivs)
	}
	if total == 0 {
		return nil
	}

	all := make([]TimeInterval, 0, total)
	for _, ivs := range byUser {
		all = append(all, ivs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	merged := make([]TimeInterval, 0, len(all))
	cur := all[0]
	for _, next := range all[1:] {
		if !next.Start.After(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// WorkingWindows returns one interval per UTC calendar day overlapping
// [start, end), clipped to the [hourStart:00, hourEnd:00] band on that day
// and to the range boundaries. Days whose clipped window is empty are
// skipped.
func WorkingWindows(start, end time.Time, hourStart, hourEnd int) []TimeInterval {
	start = start.UTC()
	end = end.UTC()

	var out []TimeInterval
	for day := startOfDayUTC(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		ws := day.Add(time.Duration(hourStart) * time.Hour)
		we := day.Add(time.Duration(hourEnd) * time.Hour)
		if ws.Before(start) {
			ws = start
		}
		if we.After(end) {
			we = end
		}
		if ws.Before(we) {
			out = append(out, TimeInterval{Start: ws, End: we})
		}
	}
	return out
}

// FindGaps subtracts the blocked intervals from each window independently.
// Gaps from different windows are concatenated, never merged: a gap cannot
// span a day boundary because each window covers at most one day.
func FindGaps(windows, blocked []TimeInterval) []TimeInterval {
	var gaps []TimeInterval
	for _, w := range windows {
		inWindow := clipToWindow(blocked, w)
		if len(inWindow) == 0 {
			gaps = append(gaps, w)
			continue
		}

		cursor := w.Start
		for _, b := range inWindow {
			if cursor.Before(b.Start) {
				gaps = append(gaps, TimeInterval{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if cursor.Before(w.End) {
			gaps = append(gaps, TimeInterval{Start: cursor, End: w.End})
		}
	}
	return gaps
}

func clipToWindow(blocked []TimeInterval, w TimeInterval) []TimeInterval {
	var out []TimeInterval
	for _, b := range blocked {
		if !b.Overlaps(w.Start, w.End) {
			continue
		}
		if b.Start.Before(w.Start) {
			b.Start = w.Start
		}
		if b.End.After(w.End) {
			b.End = w.End
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// AvailableSlots runs the full engine: merge all users' busy intervals,
// enumerate working-hours windows across the query range, find the gaps and
// keep the ones long enough. Zero requested users means zero slots.
func AvailableSlots(byUser map[string][]TimeInterval, q SlotQuery) []AvailableSlot {
	if len(q.UserIDs) == 0 {
		return []AvailableSlot{}
	}

	blocked := MergeBusyIntervals(byUser)
	windows := WorkingWindows(q.StartDate, q.EndDate, q.WorkingHoursStart, q.WorkingHoursEnd)
	gaps := FindGaps(windows, blocked)

	minDur := time.Duration(q.MinDurationMinutes) * time.Minute
	slots := make([]AvailableSlot, 0, len(gaps))
	for _, g := range gaps {
		if g.Duration() < minDur {
			continue
		}
		slots = append(slots, AvailableSlot{
			Start:            g.Start,
			End:              g.End,
			DurationMinutes:  int(g.Duration() / time.Minute),
			ParticipantsFree: append([]string(nil), q.UserIDs...),
		})
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots
}

// CheckConflicts reports which of the given users have a busy interval
// overlapping [start, end). Checking stops at a user's first conflicting
// interval, but every user is checked so the conflict list is complete.
func CheckConflicts(userIDs []string, byUser map[string][]TimeInterval, start, end time.Time) ConflictResult {
	conflicting := make([]string, 0)
	for _, id := range userIDs {
		for _, iv := range byUser[id] {
			if iv.Overlaps(start, end) {
				conflicting = append(conflicting, id)
				break
			}
		}
	}
	return ConflictResult{
		Available:        len(conflicting) == 0,
		ConflictingUsers: conflicting,
	}
}
