package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

var (
	ErrInvalidFrequency = errors.New("invalid repetition frequency")
	ErrEmptyWeekdaySet  = errors.New("weekly repetition requires at least one weekday")
	ErrEndBeforeStart   = errors.New("repetition end date is before the start date")
)

// RepetitionRule describes how one creation action expands into many
// occurrences. EndDate is inclusive. Weekdays is only consulted for
// weekly frequency.
type RepetitionRule struct {
	Frequency Frequency      `json:"frequency"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty"`
	EndDate   time.Time      `json:"end_date"`
}

// Validate checks the rule against the series start date. It must pass
// before any occurrence is generated or persisted.
func (r *RepetitionRule) Validate(start time.Time) error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyMonthly:
	case FrequencyWeekly:
		if len(r.Weekdays) == 0 {
			return ErrEmptyWeekdaySet
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return ErrInvalidFrequency
			}
		}
	default:
		return ErrInvalidFrequency
	}

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	endDay := time.Date(r.EndDate.Year(), r.EndDate.Month(), r.EndDate.Day(), 0, 0, 0, 0, r.EndDate.Location())
	if endDay.Before(startDay) {
		return ErrEndBeforeStart
	}

	return nil
}

// SessionSeries records the repetition rule a series was created from,
// so list views can describe the pattern and exports can emit an RRULE
// instead of hundreds of standalone events.
type SessionSeries struct {
	ID        uuid.UUID      `json:"id"`
	Rule      RepetitionRule `json:"rule"`
	CreatedAt time.Time      `json:"created_at"`
}

// ContainsWeekday reports whether the weekly rule selects the weekday.
func (r *RepetitionRule) ContainsWeekday(wd time.Weekday) bool {
	for _, w := range r.Weekdays {
		if w == wd {
			return true
		}
	}
	return false
}
