package schedule

import (
	"strings"
	"time"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// WeekBounds holds the inclusive Monday–Sunday range of one week.
type WeekBounds struct {
	Start time.Time
	End   time.Time
}

// WeekOf normalizes a date to its week's bounds (Monday through
// Sunday, midnight-aligned).
func WeekOf(date time.Time) WeekBounds {
	day := DayOf(date)

	daysSinceMonday := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := day.AddDate(0, 0, -daysSinceMonday)
	return WeekBounds{Start: start, End: start.AddDate(0, 0, 6)}
}

// Contains reports whether the date falls inside the week.
func (w WeekBounds) Contains(date time.Time) bool {
	d := DayOf(date)
	return !d.Before(w.Start) && !d.After(w.End)
}

// DayOf normalizes a time to midnight of its calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DedupSeries collapses repeating-series duplicates: for each series ID
// only the first occurrence (in slice order, which callers keep sorted
// by start time) survives. Occurrences without a series ID pass
// through untouched.
func DedupSeries(occurrences []*model.SessionOccurrence) []*model.SessionOccurrence {
	seen := make(map[string]bool)
	out := make([]*model.SessionOccurrence, 0, len(occurrences))

	for _, occ := range occurrences {
		if occ.SeriesID != nil {
			key := occ.SeriesID.String()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, occ)
	}

	return out
}

// Filter narrows a schedule listing. Zero values mean "no constraint";
// the populated facets compose with logical AND.
type Filter struct {
	Query    string
	Category model.SessionCategory
	Online   *bool
}

// Matches reports whether the occurrence passes every populated facet.
// The free-text query matches title, description and organizer name,
// case-insensitively.
func (f Filter) Matches(occ *model.SessionOccurrence) bool {
	if f.Category != "" && occ.Category != f.Category {
		return false
	}
	if f.Online != nil && occ.IsOnline != *f.Online {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(occ.Title), q) &&
			!strings.Contains(strings.ToLower(occ.Description), q) &&
			!strings.Contains(strings.ToLower(occ.CreatorName), q) {
			return false
		}
	}
	return true
}

// Apply returns the occurrences passing the filter, preserving order.
func (f Filter) Apply(occurrences []*model.SessionOccurrence) []*model.SessionOccurrence {
	out := make([]*model.SessionOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if f.Matches(occ) {
			out = append(out, occ)
		}
	}
	return out
}

// Stats summarizes a schedule listing for the front-end's header chips.
type Stats struct {
	Total      int                           `json:"total"`
	Online     int                           `json:"online"`
	InPerson   int                           `json:"in_person"`
	ByCategory map[model.SessionCategory]int `json:"by_category"`
}

// ComputeStats counts the occurrences by delivery mode and category.
func ComputeStats(occurrences []*model.SessionOccurrence) Stats {
	stats := Stats{ByCategory: make(map[model.SessionCategory]int)}
	for _, occ := range occurrences {
		stats.Total++
		if occ.IsOnline {
			stats.Online++
		} else {
			stats.InPerson++
		}
		stats.ByCategory[occ.Category]++
	}
	return stats
}
