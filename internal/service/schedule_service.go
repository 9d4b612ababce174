package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/schedule"
)

// WeekSchedule is the aggregated answer to "what's on my calendar this
// week": the user's occurrences inside the window with
// repeating-series duplicates collapsed, plus summary stats. Rules
// carries the repetition rule of every series present, for pattern
// labels and the iCal export.
type WeekSchedule struct {
	Week        schedule.WeekBounds                 `json:"week"`
	Occurrences []*model.SessionOccurrence          `json:"occurrences"`
	Stats       schedule.Stats                      `json:"stats"`
	Rules       map[uuid.UUID]*model.RepetitionRule `json:"rules,omitempty"`
}

// ScheduleService assembles per-user schedule views on top of the
// session store and the pure layout/filter helpers.
type ScheduleService struct {
	sessions SessionStore
	entries  ScheduleEntryStore
	logger   *zap.Logger
}

func NewScheduleService(sessions SessionStore, entries ScheduleEntryStore, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{sessions: sessions, entries: entries, logger: logger}
}

// GetWeekSchedule returns the user's occurrences (as creator or
// participant) in the week starting at weekStart, filtered by the
// AND-composed facets, deduplicated per series, with stats computed on
// the deduplicated listing.
func (s *ScheduleService) GetWeekSchedule(ctx context.Context, userID string, weekStart time.Time, filter schedule.Filter) (*WeekSchedule, error) {
	from := schedule.DayOf(weekStart)
	to := from.AddDate(0, 0, 7)

	occurrences, err := s.sessions.ListForUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list week occurrences: %w", err)
	}

	deduped := schedule.DedupSeries(filter.Apply(occurrences))

	rules := make(map[uuid.UUID]*model.RepetitionRule)
	for _, occ := range deduped {
		if occ.SeriesID == nil {
			continue
		}
		if _, ok := rules[*occ.SeriesID]; ok {
			continue
		}
		series, err := s.sessions.GetSeries(ctx, *occ.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("get series rule: %w", err)
		}
		if series != nil {
			rules[*occ.SeriesID] = &series.Rule
		}
	}

	return &WeekSchedule{
		Week:        schedule.WeekBounds{Start: from, End: from.AddDate(0, 0, 6)},
		Occurrences: deduped,
		Stats:       schedule.ComputeStats(deduped),
		Rules:       rules,
	}, nil
}

// LayoutDay lays the user's occurrences on the given day out into
// side-by-side columns for the day/week calendar grid. All occurrences
// are included here — the grid shows every date of a series, only list
// views collapse them.
func (s *ScheduleService) LayoutDay(ctx context.Context, userID string, day time.Time) ([]schedule.PositionedEvent, error) {
	from := schedule.DayOf(day)
	to := from.AddDate(0, 0, 1)

	occurrences, err := s.sessions.ListForUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list day occurrences: %w", err)
	}

	return schedule.LayoutDay(toTimedEvents(occurrences), day), nil
}

// WeekEvents returns the user's occurrences of the week containing
// weekStart, keyed for the renderer: the full set, no series
// collapsing. The renderer draws a Monday-aligned grid, so the fetch
// window is aligned to the same Monday regardless of which day of the
// week the caller passes.
func (s *ScheduleService) WeekEvents(ctx context.Context, userID string, weekStart time.Time) ([]*model.SessionOccurrence, error) {
	from := schedule.WeekOf(weekStart).Start
	occurrences, err := s.sessions.ListForUserBetween(ctx, userID, from, from.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("list week occurrences: %w", err)
	}
	return occurrences, nil
}

// ListEntries returns the user's denormalized schedule entries for the
// week starting at weekStart, plus their all-time entry count. Entries
// are snapshots taken at enrollment time; the live occurrence is the
// source of truth for current details.
func (s *ScheduleService) ListEntries(ctx context.Context, userID string, weekStart time.Time) ([]*model.ScheduleEntry, int, error) {
	from := schedule.DayOf(weekStart)
	entries, err := s.entries.ListForUserBetween(ctx, userID, from, from.AddDate(0, 0, 7))
	if err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}
	total, err := s.entries.CountForUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}
	return entries, total, nil
}

func toTimedEvents(occurrences []*model.SessionOccurrence) []schedule.TimedEvent {
	events := make([]schedule.TimedEvent, 0, len(occurrences))
	for _, occ := range occurrences {
		events = append(events, schedule.TimedEvent{
			ID:    occ.ID,
			Title: occ.Title,
			Start: occ.StartTime,
			End:   occ.EndTime,
		})
	}
	return events
}
