package schedule

import (
	"errors"
	"time"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// MaxOccurrences caps how many dates a single repetition rule may
// expand into (a daily rule spanning one year). Rules exceeding the cap
// are rejected before anything is written.
const MaxOccurrences = 366

var (
	ErrTooManyOccurrences  = errors.New("repetition rule produces too many occurrences")
	ErrRuleProducesNoDates = errors.New("repetition rule produces no occurrences in its date range")
)

// Generate expands a start date and an optional repetition rule into
// the ordered list of calendar dates (midnight, start's location) on
// which the session occurs. A nil rule means a single session on the
// start date.
//
// Monthly rules keep the start date's day-of-month as the anchor and
// clamp it to the last day of shorter months: a series anchored on the
// 31st lands on Feb 29 (leap) or Feb 28, then returns to the 31st in
// March. No month is ever skipped or visited twice.
func Generate(start time.Time, rule *model.RepetitionRule) ([]time.Time, error) {
	startDay := DayOf(start)

	if rule == nil {
		return []time.Time{startDay}, nil
	}

	if err := rule.Validate(start); err != nil {
		return nil, err
	}

	endDay := DayOf(rule.EndDate)

	var dates []time.Time
	switch rule.Frequency {
	case model.FrequencyDaily:
		for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
			if len(dates) >= MaxOccurrences {
				return nil, ErrTooManyOccurrences
			}
			dates = append(dates, d)
		}

	case model.FrequencyWeekly:
		for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
			if !rule.ContainsWeekday(d.Weekday()) {
				continue
			}
			if len(dates) >= MaxOccurrences {
				return nil, ErrTooManyOccurrences
			}
			dates = append(dates, d)
		}

	case model.FrequencyMonthly:
		anchor := startDay.Day()
		for i := 0; ; i++ {
			d := monthlyDate(startDay, anchor, i)
			if d.After(endDay) {
				break
			}
			if len(dates) >= MaxOccurrences {
				return nil, ErrTooManyOccurrences
			}
			dates = append(dates, d)
		}
	}

	if len(dates) == 0 {
		return nil, ErrRuleProducesNoDates
	}

	return dates, nil
}

// monthlyDate computes the i-th monthly occurrence, clamping the anchor
// day to the target month's length. AddDate is deliberately avoided for
// the month step: it normalizes Jan 31 + 1 month into Mar 2.
func monthlyDate(startDay time.Time, anchor, i int) time.Time {
	year := startDay.Year()
	month := int(startDay.Month()) - 1 + i
	year += month / 12
	month = month % 12

	day := anchor
	if last := daysInMonth(year, time.Month(month+1), startDay.Location()); day > last {
		day = last
	}

	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, startDay.Location())
}

// daysInMonth returns the number of days in the given month. Day zero
// of the following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
