package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	userIDHeader   = "X-User-ID"
	contextUserKey = "user_id"
)

// requireUser resolves the caller's identity from the X-User-ID header.
// The platform's gateway authenticates users upstream; this service
// only needs to know who is calling.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(userIDHeader)
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+userIDHeader+" header")
		}
		c.Set(contextUserKey, userID)
		return next(c)
	}
}

func currentUserID(c echo.Context) string {
	id, _ := c.Get(contextUserKey).(string)
	return id
}
