package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/teacher"
)

const objectContextKey = "object"

var errDeleteSelf = core.NewValidationError(errors.New("you cannot delete your own account"))

func (s *Server) registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	tg := g.Group("/teachers", jwt, teacherMiddleware())
	tg.GET("/me", s.teacherRetrieveMe)
	tg.PUT("/me", s.teacherUpdateMe)

	tg.GET("", s.teacherList, adminMiddleware())
	tg.POST("", s.teacherCreate, adminMiddleware())

	detail := tg.Group("/:id", adminMiddleware(), s.ctxTeacherMiddleware)
	detail.GET("", s.teacherRetrieve)
	detail.PUT("", s.teacherUpdate)
	detail.DELETE("", s.teacherDelete)
}

// ctxTeacherMiddleware loads the teacher identified by the `id` path param of the request's church.
func (s *Server) ctxTeacherMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		t, err := s.deps.TeacherSvc.GetByID(ctx.Request().Context(), claims.ChurchID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding teacher")
		}
		ctx.Set(objectContextKey, t)
		return next(ctx)
	}
}

func ctxTeacher(ctx echo.Context) (teacher.Teacher, error) {
	if t, ok := ctx.Get(objectContextKey).(teacher.Teacher); ok {
		return t, nil
	}
	return teacher.Teacher{}, errors.New("teacher missing from context")
}

func (s *Server) teacherList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := teacher.QueryFilter{Search: ctx.QueryParam("search")}
	if filter.IsActive, err = queryBool(ctx, "is_active"); err != nil {
		return err
	}
	if filter.IsAdmin, err = queryBool(ctx, "is_admin"); err != nil {
		return err
	}
	filter.Clean()

	teachers, err := s.deps.TeacherSvc.Query(ctx.Request().Context(), claims.ChurchID, &filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (s *Server) teacherCreate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data teacher.NewTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	data.ChurchID = claims.ChurchID
	rctx := ctx.Request().Context()
	if err = data.Validate(rctx, s.deps.Validate, s.deps.TeacherSvc); err != nil {
		return err
	}

	t, err := s.deps.TeacherSvc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (s *Server) teacherRetrieve(ctx echo.Context) error {
	t, err := ctxTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (s *Server) updateTeacher(ctx echo.Context, orig teacher.Teacher, allowAdminFields bool) error {
	var data teacher.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if data.HasAdminFields() && !allowAdminFields {
		return errHttpForbidden
	}
	if err := data.Validate(orig, s.deps.Validate); err != nil {
		return err
	}

	t, err := s.deps.TeacherSvc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (s *Server) teacherUpdate(ctx echo.Context) error {
	t, err := ctxTeacher(ctx)
	if err != nil {
		return err
	}
	return s.updateTeacher(ctx, t, true)
}

func (s *Server) teacherDelete(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	t, err := ctxTeacher(ctx)
	if err != nil {
		return err
	}
	if t.ID == claims.Subject {
		return errDeleteSelf
	}

	if err = s.deps.TeacherSvc.Delete(ctx.Request().Context(), claims.ChurchID, t.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) currentTeacher(ctx echo.Context) (teacher.Teacher, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "getting context claims")
	}
	t, err := s.deps.TeacherSvc.GetByID(ctx.Request().Context(), claims.ChurchID, claims.Subject)
	if err != nil {
		if core.IsNotFound(err) {
			return teacher.Teacher{}, errUnauthorized
		}
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher")
	}
	return t, nil
}

func (s *Server) teacherRetrieveMe(ctx echo.Context) error {
	t, err := s.currentTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (s *Server) teacherUpdateMe(ctx echo.Context) error {
	t, err := s.currentTeacher(ctx)
	if err != nil {
		return err
	}
	return s.updateTeacher(ctx, t, false)
}
