package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
)

func (s *Server) registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ag := g.Group("/attendance", jwt, teacherMiddleware())
	ag.GET("", s.attendanceSheet)
	ag.PUT("/:student_id", s.attendanceMark)
	ag.GET("/:student_id/history", s.attendanceHistory)
}

// bindDate reads the `date` query param, defaulting to today.
func bindDate(ctx echo.Context) (core.Date, error) {
	val := ctx.QueryParam("date")
	if val == "" {
		return core.Today(), nil
	}
	date, err := core.ParseDate(val)
	if err != nil {
		return core.Date{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as " + core.DateLayout})
	}
	return date, nil
}

func (s *Server) attendanceSheet(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	date, err := bindDate(ctx)
	if err != nil {
		return err
	}

	rows, err := s.deps.AttendanceSvc.Sheet(ctx.Request().Context(), claims.ChurchID, date)
	if err != nil {
		return errors.Wrap(err, "building attendance sheet")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (s *Server) attendanceMark(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.Mark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Mark")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	rec, err := s.deps.AttendanceSvc.Mark(ctx.Request().Context(), claims.ChurchID, claims.Subject, ctx.Param("student_id"), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (s *Server) attendanceHistory(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter attendance.HistoryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to HistoryFilter")
	}

	recs, err := s.deps.AttendanceSvc.History(ctx.Request().Context(), claims.ChurchID, ctx.Param("student_id"), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	return ctx.JSON(http.StatusOK, recs)
}
