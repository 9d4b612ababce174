package httpapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/service"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

type sessionRequest struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Date         string         `json:"date"`
	StartTime    string         `json:"start_time"`
	EndTime      string         `json:"end_time"`
	IsOnline     bool           `json:"is_online"`
	MeetingLink  string         `json:"meeting_link"`
	Location     string         `json:"location"`
	MaxAttendees int            `json:"max_attendees"`
	GroupID      *uuid.UUID     `json:"group_id,omitempty"`
	Repeat       *repeatRequest `json:"repeat,omitempty"`
}

type repeatRequest struct {
	Frequency string `json:"frequency"`
	Weekdays  []int  `json:"weekdays,omitempty"`
	EndDate   string `json:"end_date"`
}

func (r sessionRequest) toInput() (service.SessionInput, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return service.SessionInput{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", r.Date)
	}
	startH, startM, err := parseClock(r.StartTime)
	if err != nil {
		return service.SessionInput{}, err
	}
	endH, endM, err := parseClock(r.EndTime)
	if err != nil {
		return service.SessionInput{}, err
	}

	return service.SessionInput{
		Title:        r.Title,
		Description:  r.Description,
		Category:     model.SessionCategory(r.Category),
		Date:         date,
		StartHour:    startH,
		StartMinute:  startM,
		EndHour:      endH,
		EndMinute:    endM,
		IsOnline:     r.IsOnline,
		MeetingLink:  r.MeetingLink,
		Location:     r.Location,
		MaxAttendees: r.MaxAttendees,
		GroupID:      r.GroupID,
	}, nil
}

func (r *repeatRequest) toRule() (*model.RepetitionRule, error) {
	if r == nil {
		return nil, nil
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q, want YYYY-MM-DD", r.EndDate)
	}

	rule := &model.RepetitionRule{
		Frequency: model.Frequency(r.Frequency),
		EndDate:   end,
	}
	for _, wd := range r.Weekdays {
		if wd < 0 || wd > 6 {
			return nil, fmt.Errorf("invalid weekday %d, want 0 (Sunday) through 6 (Saturday)", wd)
		}
		rule.Weekdays = append(rule.Weekdays, time.Weekday(wd))
	}
	return rule, nil
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Role        string `json:"role"`
}

type respondRequest struct {
	Accept bool `json:"accept"`
}
