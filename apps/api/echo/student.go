package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core/student"
)

func (s *Server) registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	sg := g.Group("/students", jwt, teacherMiddleware())
	sg.GET("", s.studentList)
	sg.POST("", s.studentCreate)

	detail := sg.Group("/:id", s.ctxStudentMiddleware)
	detail.GET("", s.studentRetrieve)
	detail.PUT("", s.studentUpdate)
	detail.DELETE("", s.studentDelete)
	detail.POST("/code", s.studentRegenerateCode)
}

// ctxStudentMiddleware loads the student identified by the `id` path param of the request's church.
func (s *Server) ctxStudentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		stu, err := s.deps.StudentSvc.GetByID(ctx.Request().Context(), claims.ChurchID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding student")
		}
		ctx.Set(objectContextKey, stu)
		return next(ctx)
	}
}

func ctxStudent(ctx echo.Context) (student.Student, error) {
	if stu, ok := ctx.Get(objectContextKey).(student.Student); ok {
		return stu, nil
	}
	return student.Student{}, errors.New("student missing from context")
}

func (s *Server) studentList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := student.QueryFilter{
		Search: ctx.QueryParam("search"),
		TeamID: ctx.QueryParam("team_id"),
	}
	if filter.IsActive, err = queryBool(ctx, "is_active"); err != nil {
		return err
	}
	filter.Clean()

	students, err := s.deps.StudentSvc.Query(ctx.Request().Context(), claims.ChurchID, &filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (s *Server) studentCreate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	data.ChurchID = claims.ChurchID
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	stu, err := s.deps.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (s *Server) studentRetrieve(ctx echo.Context) error {
	stu, err := ctxStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (s *Server) studentUpdate(ctx echo.Context) error {
	orig, err := ctxStudent(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	stu, err := s.deps.StudentSvc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (s *Server) studentDelete(ctx echo.Context) error {
	stu, err := ctxStudent(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.StudentSvc.Delete(ctx.Request().Context(), stu.ChurchID, stu.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) studentRegenerateCode(ctx echo.Context) error {
	stu, err := ctxStudent(ctx)
	if err != nil {
		return err
	}
	if stu, err = s.deps.StudentSvc.RegenerateCode(ctx.Request().Context(), stu); err != nil {
		return errors.Wrap(err, "regenerating student code")
	}
	return ctx.JSON(http.StatusOK, stu)
}
