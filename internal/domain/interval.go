package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeInterval is a half-open [Start, End) span of absolute UTC instants,
// Start <= End. Intervals are produced by NormalizeBusyBlock; no other code
// builds them from raw block strings.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i TimeInterval) Overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && i.End.After(start)
}

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseAbsolute(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func parseWallClock(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time of day %q", raw)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", raw)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return hour, minute, nil
}

// ValidateBlockTimes reports whether a raw start/end pair is parseable as
// either form a BusyBlock accepts. The block's start decides the form for
// both endpoints.
func ValidateBlockTimes(start, end string) error {
	if strings.ContainsAny(strings.TrimSpace(start), "T-") {
		s, err := parseAbsolute(start)
		if err != nil {
			return err
		}
		e, err := parseAbsolute(end)
		if err != nil {
			return err
		}
		if !e.After(s) {
			return errors.New("end must be after start")
		}
		return nil
	}
	if _, _, err := parseWallClock(start); err != nil {
		return err
	}
	_, _, err := parseWallClock(end)
	return err
}

// NormalizeBusyBlock resolves a raw block against referenceDate and returns
// the absolute interval it covers. A date separator ("T" or "-") in the
// block's start marks both endpoints as ISO timestamps; otherwise both are
// "HH:MM" wall-clock on referenceDate's UTC calendar day, and a wall-clock
// end at or before its start rolls to the next day (overnight block).
// ok is false when the resolved interval has no overlap with
// [referenceDate, windowEnd).
func NormalizeBusyBlock(b BusyBlock, referenceDate, windowEnd time.Time) (TimeInterval, bool, error) {
	var start, end time.Time

	if strings.ContainsAny(strings.TrimSpace(b.Start), "T-") {
		s, err := parseAbsolute(b.Start)
		if err != nil {
			return TimeInterval{}, false, err
		}
		e, err := parseAbsolute(b.End)
		if err != nil {
			return TimeInterval{}, false, err
		}
		if !e.After(s) {
			return TimeInterval{}, false, errors.New("end must be after start")
		}
		start, end = s, e
	} else {
		sh, sm, err := parseWallClock(b.Start)
		if err != nil {
			return TimeInterval{}, false, err
		}
		eh, em, err := parseWallClock(b.End)
		if err != nil {
			return TimeInterval{}, false, err
		}
		day := startOfDayUTC(referenceDate)
		start = day.Add(time.Duration(sh)*time.Hour + time.Duration(sm)*time.Minute)
		end = day.Add(time.Duration(eh)*time.Hour + time.Duration(em)*time.Minute)
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
	}

	if !end.After(referenceDate) || !start.Before(windowEnd) {
		return TimeInterval{}, false, nil
	}
	return TimeInterval{Start: start, End: end}, true, nil
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
