package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

const productID = "-//EduConnect//Schedule//EN"

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Calendar serializes a schedule listing to an iCalendar document.
// Callers pass the deduplicated week listing: a series occurrence
// becomes one VEVENT carrying the RRULE of its repetition rule, a
// standalone occurrence a plain VEVENT.
func Calendar(occurrences []*model.SessionOccurrence, rules map[uuid.UUID]*model.RepetitionRule) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, occ := range occurrences {
		event := cal.AddEvent(occ.ID.String())
		event.SetDtStampTime(time.Now())
		event.SetStartAt(occ.StartTime)
		event.SetEndAt(occ.EndTime)
		event.SetSummary(occ.Title)
		if occ.Description != "" {
			event.SetDescription(occ.Description)
		}
		if occ.IsOnline {
			event.SetURL(occ.MeetingLink)
		} else {
			event.SetLocation(occ.Location)
		}

		if occ.SeriesID == nil {
			continue
		}
		rule := rules[*occ.SeriesID]
		if rule == nil {
			continue
		}
		rruleStr, err := RuleString(occ.StartTime, rule)
		if err != nil {
			return "", fmt.Errorf("build rrule for series %s: %w", occ.SeriesID, err)
		}
		event.AddRrule(rruleStr)
	}

	return cal.Serialize(), nil
}

// RuleString renders a repetition rule as an RFC 5545 RRULE value
// anchored at the given start.
func RuleString(start time.Time, rule *model.RepetitionRule) (string, error) {
	opt := rrule.ROption{Dtstart: start}

	switch rule.Frequency {
	case model.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case model.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		for _, wd := range rule.Weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
		}
	case model.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		// A plain FREQ=MONTHLY skips months shorter than the anchor
		// day, but the stored occurrences clamp to the last day of
		// those months. Listing the candidate days and taking the
		// latest one per month reproduces the clamp for anchors past
		// the 28th.
		if anchor := start.Day(); anchor >= 29 {
			for d := 28; d <= anchor; d++ {
				opt.Bymonthday = append(opt.Bymonthday, d)
			}
			opt.Bysetpos = []int{-1}
		}
	default:
		return "", model.ErrInvalidFrequency
	}

	if !rule.EndDate.IsZero() {
		end := rule.EndDate
		opt.Until = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	}

	// NewRRule validates the option set before it is serialized.
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}
