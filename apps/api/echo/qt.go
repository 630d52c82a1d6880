package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/qt"
)

var errPhotoRequired = core.NewValidationError(
	errors.New("photo is required"),
	core.FieldError{Field: "photo", Error: "photo is required"},
)

func (s *Server) registerQTAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	qg := g.Group("/qt", jwt)

	// students
	limit := middleware.BodyLimit(strconv.FormatInt(s.deps.Conf.Server.MaxUploadSize, 10))
	qg.POST("", s.qtSubmit, studentMiddleware(), limit)
	qg.GET("/mine", s.qtListMine, studentMiddleware())

	// teachers
	qg.GET("", s.qtList, teacherMiddleware())
	qg.POST("/:id/approve", s.qtApprove, teacherMiddleware())
	qg.POST("/:id/reject", s.qtReject, teacherMiddleware())

	// owner or teachers
	qg.GET("/:id/photo", s.qtPhoto)
}

func (s *Server) qtSubmit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var date core.Date
	if err = date.UnmarshalParam(ctx.FormValue("date")); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as " + core.DateLayout})
	}
	fh, err := ctx.FormFile("photo")
	if err != nil {
		if errors.Cause(err) == http.ErrMissingFile || errors.Cause(err) == http.ErrNotMultipart {
			return errPhotoRequired
		}
		return errors.Wrap(err, "reading photo")
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening photo")
	}
	defer file.Close()

	sub, err := s.deps.QTSvc.Submit(ctx.Request().Context(), claims.ChurchID, claims.Subject, date, file)
	if err != nil {
		return errors.Wrap(err, "submitting qt")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (s *Server) qtListMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	subs, err := s.deps.QTSvc.Query(ctx.Request().Context(), claims.ChurchID, &qt.QueryFilter{StudentID: claims.Subject}, nil)
	if err != nil {
		return errors.Wrap(err, "querying qt submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (s *Server) qtList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter qt.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if err = filter.Validate(s.deps.Validate); err != nil {
		return err
	}

	subs, err := s.deps.QTSvc.Query(ctx.Request().Context(), claims.ChurchID, &filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying qt submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (s *Server) qtApprove(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sub, err := s.deps.QTSvc.Approve(ctx.Request().Context(), claims.ChurchID, claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving qt")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (s *Server) qtReject(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data qt.Reject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reject")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	sub, err := s.deps.QTSvc.Reject(ctx.Request().Context(), claims.ChurchID, claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "rejecting qt")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (s *Server) qtPhoto(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()

	sub, err := s.deps.QTSvc.GetByID(rctx, claims.ChurchID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding qt submission")
	}
	// students only see their own photos
	if claims.IsStudent() && sub.StudentID != claims.Subject {
		return errHttpNotFound
	}

	rc, contentType, err := s.deps.QTSvc.OpenPhoto(rctx, sub)
	if err != nil {
		return errors.Wrap(err, "opening qt photo")
	}
	defer rc.Close()
	return ctx.Stream(http.StatusOK, contentType, rc)
}
