package httpapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/render"
	"github.com/superALLEY/EduConnect-sub001/internal/service"
)

// UserAccounts is the slice of the user repository the HTTP layer
// needs for profile upserts and identity checks.
type UserAccounts interface {
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Server is the HTTP front of the scheduling service.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	sessions *service.SessionService
	enroll   *service.EnrollmentService
	schedule *service.ScheduleService
	notes    *service.NotificationService
	users    UserAccounts
	renderer *render.WeekImage
}

func NewServer(
	sessions *service.SessionService,
	enroll *service.EnrollmentService,
	scheduleSvc *service.ScheduleService,
	notes *service.NotificationService,
	users UserAccounts,
	renderer *render.WeekImage,
	logger *zap.Logger,
) *Server {
	s := &Server{
		echo:     echo.New(),
		logger:   logger,
		sessions: sessions,
		enroll:   enroll,
		schedule: scheduleSvc,
		notes:    notes,
		users:    users,
		renderer: renderer,
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")

	api.PUT("/users/me", s.upsertMe, s.requireUser)

	sessions := api.Group("/sessions", s.requireUser)
	sessions.POST("", s.createSession)
	sessions.GET("/:id", s.getSession)
	sessions.PUT("/:id", s.updateSession)
	sessions.DELETE("/:id", s.deleteSession)
	sessions.POST("/:id/requests", s.requestJoin)
	sessions.POST("/:id/requests/:userID", s.respondToRequest)

	sched := api.Group("/schedule", s.requireUser)
	sched.GET("/week", s.getWeekSchedule)
	sched.GET("/entries", s.listEntries)
	sched.GET("/week/image", s.getWeekImage)
	sched.GET("/week/export.ics", s.exportWeek)
	sched.GET("/day/layout", s.getDayLayout)

	notes := api.Group("/notifications", s.requireUser)
	notes.GET("", s.listNotifications)
	notes.GET("/unread-count", s.countUnread)
	notes.POST("/read-all", s.markAllRead)
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server starting", zap.String("addr", addr))
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			s.logger.Info("Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}
