package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/export"
	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/schedule"
	"github.com/superALLEY/EduConnect-sub001/internal/service"
)

// PUT /api/users/me
func (s *Server) upsertMe(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.DisplayName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "display_name is required")
	}

	role := model.UserRole(req.Role)
	switch role {
	case model.RoleStudent, model.RoleTeacher, model.RoleBoth:
	case "":
		role = model.RoleStudent
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	user := &model.User{
		ID:          currentUserID(c),
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Role:        role,
	}
	if err := s.users.Upsert(c.Request().Context(), user); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// POST /api/sessions
func (s *Server) createSession(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	input, err := req.toInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rule, err := req.Repeat.toRule()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	series, occurrences, err := s.sessions.CreateSeries(c.Request().Context(), currentUserID(c), input, rule)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"series":      series,
		"occurrences": occurrences,
	})
}

// GET /api/sessions/:id
func (s *Server) getSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	occ, err := s.sessions.GetOccurrence(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, occ)
}

// PUT /api/sessions/:id
func (s *Server) updateSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	input, err := req.toInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	occ, err := s.sessions.UpdateOccurrence(c.Request().Context(), currentUserID(c), id, input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, occ)
}

// DELETE /api/sessions/:id
// ?series=true removes the whole series the occurrence belongs to.
func (s *Server) deleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var warning *service.CancellationWarning
	if c.QueryParam("series") == "true" {
		occ, err := s.sessions.GetOccurrence(ctx, id)
		if err != nil {
			return httpError(err)
		}
		if occ.SeriesID == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "session does not belong to a series")
		}
		warning, err = s.sessions.DeleteSeries(ctx, userID, *occ.SeriesID)
		if err != nil {
			return httpError(err)
		}
	} else {
		warning, err = s.sessions.DeleteOccurrence(ctx, userID, id)
		if err != nil {
			return httpError(err)
		}
	}

	resp := echo.Map{"deleted": true}
	if warning != nil {
		resp["failed_notifications"] = warning.FailedRecipients
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /api/sessions/:id/requests
func (s *Server) requestJoin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	if err := s.enroll.RequestJoin(c.Request().Context(), id, currentUserID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"requested": true})
}

// POST /api/sessions/:id/requests/:userID
func (s *Server) respondToRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var req respondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	err = s.enroll.RespondToRequest(c.Request().Context(), currentUserID(c), id, c.Param("userID"), req.Accept)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accepted": req.Accept})
}

// GET /api/schedule/week?start=YYYY-MM-DD&q=&category=&online=
func (s *Server) getWeekSchedule(c echo.Context) error {
	weekStart, err := weekStartParam(c)
	if err != nil {
		return err
	}
	filter, err := filterParams(c)
	if err != nil {
		return err
	}

	week, err := s.schedule.GetWeekSchedule(c.Request().Context(), currentUserID(c), weekStart, filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, week)
}

// GET /api/schedule/entries?start=YYYY-MM-DD
func (s *Server) listEntries(c echo.Context) error {
	weekStart, err := weekStartParam(c)
	if err != nil {
		return err
	}

	entries, total, err := s.schedule.ListEntries(c.Request().Context(), currentUserID(c), weekStart)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"total":   total,
	})
}

// GET /api/schedule/week/image?start=YYYY-MM-DD
func (s *Server) getWeekImage(c echo.Context) error {
	weekStart, err := weekStartParam(c)
	if err != nil {
		return err
	}

	occurrences, err := s.schedule.WeekEvents(c.Request().Context(), currentUserID(c), weekStart)
	if err != nil {
		return httpError(err)
	}

	png, err := s.renderer.Render(weekStart, occurrences)
	if err != nil {
		s.logger.Error("Week image rendering failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render week image")
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// GET /api/schedule/week/export.ics?start=YYYY-MM-DD
func (s *Server) exportWeek(c echo.Context) error {
	weekStart, err := weekStartParam(c)
	if err != nil {
		return err
	}

	week, err := s.schedule.GetWeekSchedule(c.Request().Context(), currentUserID(c), weekStart, schedule.Filter{})
	if err != nil {
		return httpError(err)
	}

	ics, err := export.Calendar(week.Occurrences, week.Rules)
	if err != nil {
		s.logger.Error("Calendar export failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to export calendar")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="schedule.ics"`)
	return c.Blob(http.StatusOK, "text/calendar", []byte(ics))
}

// GET /api/schedule/day/layout?date=YYYY-MM-DD
func (s *Server) getDayLayout(c echo.Context) error {
	dateStr := c.QueryParam("date")
	day, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}

	positioned, err := s.schedule.LayoutDay(c.Request().Context(), currentUserID(c), day)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": positioned})
}

// GET /api/notifications?limit=
func (s *Server) listNotifications(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	notes, err := s.notes.List(c.Request().Context(), currentUserID(c), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": notes})
}

// GET /api/notifications/unread-count
func (s *Server) countUnread(c echo.Context) error {
	count, err := s.notes.CountUnread(c.Request().Context(), currentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": count})
}

// POST /api/notifications/read-all
func (s *Server) markAllRead(c echo.Context) error {
	if err := s.notes.MarkAllRead(c.Request().Context(), currentUserID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"read": true})
}

func weekStartParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("start")
	if raw == "" {
		return time.Now(), nil
	}
	start, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid start, want YYYY-MM-DD")
	}
	return start, nil
}

func filterParams(c echo.Context) (schedule.Filter, error) {
	filter := schedule.Filter{
		Query:    c.QueryParam("q"),
		Category: model.SessionCategory(c.QueryParam("category")),
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return schedule.Filter{}, echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	switch c.QueryParam("online") {
	case "":
	case "true":
		online := true
		filter.Online = &online
	case "false":
		online := false
		filter.Online = &online
	default:
		return schedule.Filter{}, echo.NewHTTPError(http.StatusBadRequest, "online must be true or false")
	}
	return filter, nil
}
