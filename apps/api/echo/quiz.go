package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core/quiz"
)

type ImportResponse struct {
	Imported int `json:"imported"`
}

func (s *Server) registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	qg := g.Group("/quiz/questions", jwt, teacherMiddleware())
	qg.GET("", s.questionList)
	qg.POST("", s.questionCreate)
	qg.POST("/import", s.questionImport)

	detail := qg.Group("/:id", s.ctxQuestionMiddleware)
	detail.GET("", s.questionRetrieve)
	detail.PUT("", s.questionUpdate)
	detail.DELETE("", s.questionDelete)
}

func (s *Server) ctxQuestionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		q, err := s.deps.QuizSvc.GetByID(ctx.Request().Context(), claims.ChurchID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding question")
		}
		ctx.Set(objectContextKey, q)
		return next(ctx)
	}
}

func ctxQuestion(ctx echo.Context) (quiz.Question, error) {
	if q, ok := ctx.Get(objectContextKey).(quiz.Question); ok {
		return q, nil
	}
	return quiz.Question{}, errors.New("question missing from context")
}

func (s *Server) questionList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	filter := quiz.QueryFilter{Search: ctx.QueryParam("search")}
	filter.Clean()

	questions, err := s.deps.QuizSvc.Query(ctx.Request().Context(), claims.ChurchID, &filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (s *Server) questionCreate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data quiz.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	q, err := s.deps.QuizSvc.Create(ctx.Request().Context(), claims.ChurchID, data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

// questionImport reads a YAML question file from the request body.
func (s *Server) questionImport(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := s.deps.QuizSvc.Import(ctx.Request().Context(), claims.ChurchID, ctx.Request().Body, s.deps.Validate)
	if err != nil {
		return errors.Wrap(err, "importing questions")
	}
	return ctx.JSON(http.StatusCreated, ImportResponse{Imported: n})
}

func (s *Server) questionRetrieve(ctx echo.Context) error {
	q, err := ctxQuestion(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (s *Server) questionUpdate(ctx echo.Context) error {
	orig, err := ctxQuestion(ctx)
	if err != nil {
		return err
	}

	var data quiz.UpdateQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	q, err := s.deps.QuizSvc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (s *Server) questionDelete(ctx echo.Context) error {
	q, err := ctxQuestion(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.QuizSvc.Delete(ctx.Request().Context(), q.ChurchID, q.ID); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}
