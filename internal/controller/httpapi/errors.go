package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/repository"
	"github.com/superALLEY/EduConnect-sub001/internal/schedule"
	"github.com/superALLEY/EduConnect-sub001/internal/service"
)

// httpError maps service and repository sentinels to HTTP statuses.
// Conflicting enrollment states are 409 so clients can refresh stale
// views; validation failures are 400.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnknownUser):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotCreator):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrSessionFull),
		errors.Is(err, repository.ErrAlreadyMember),
		errors.Is(err, repository.ErrAlreadyRequested),
		errors.Is(err, repository.ErrNoSuchRequest):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMissingTitle),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrMissingMeetingLink),
		errors.Is(err, service.ErrMissingLocation),
		errors.Is(err, service.ErrUnknownGroup),
		errors.Is(err, model.ErrInvalidFrequency),
		errors.Is(err, model.ErrEmptyWeekdaySet),
		errors.Is(err, model.ErrEndBeforeStart),
		errors.Is(err, schedule.ErrTooManyOccurrences),
		errors.Is(err, schedule.ErrRuleProducesNoDates):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
