package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core/game"
	"github.com/trezcool/dalant/core/talent"
)

type AwardResponse struct {
	Board   game.BoardState `json:"board"`
	Entries []talent.Entry  `json:"entries"`
}

func (s *Server) registerGameAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	gg := g.Group("/games", jwt, teacherMiddleware())
	gg.POST("/team-picker", s.gamePickTeams)

	bg := gg.Group("/quiz-board")
	bg.POST("", s.boardStart)
	bg.GET("/:id", s.boardRetrieve)
	bg.POST("/:id/answer", s.boardAnswer)
	bg.POST("/:id/roll", s.boardRoll)
	bg.POST("/:id/award", s.boardAward)
	bg.DELETE("/:id", s.boardEnd)
}

func (s *Server) gamePickTeams(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data game.PickRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PickRequest")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	res, err := s.deps.GameSvc.PickTeams(ctx.Request().Context(), claims.ChurchID, data)
	if err != nil {
		return errors.Wrap(err, "picking teams")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (s *Server) boardStart(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data game.NewBoardRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBoardRequest")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	state, err := s.deps.GameSvc.StartBoard(ctx.Request().Context(), claims.ChurchID, data)
	if err != nil {
		return errors.Wrap(err, "starting quiz board")
	}
	return ctx.JSON(http.StatusCreated, state)
}

func (s *Server) boardRetrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	state, err := s.deps.GameSvc.Board(claims.ChurchID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz board")
	}
	return ctx.JSON(http.StatusOK, state)
}

func (s *Server) boardAnswer(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data game.AnswerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswerRequest")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	state, err := s.deps.GameSvc.Answer(claims.ChurchID, ctx.Param("id"), *data.Correct)
	if err != nil {
		return errors.Wrap(err, "answering quiz board")
	}
	return ctx.JSON(http.StatusOK, state)
}

func (s *Server) boardRoll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	state, err := s.deps.GameSvc.Roll(claims.ChurchID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rolling quiz board")
	}
	return ctx.JSON(http.StatusOK, state)
}

func (s *Server) boardAward(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data game.AwardRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AwardRequest")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	state, entries, err := s.deps.GameSvc.Award(ctx.Request().Context(), claims.ChurchID, claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "awarding quiz board")
	}
	return ctx.JSON(http.StatusOK, AwardResponse{Board: state, Entries: entries})
}

func (s *Server) boardEnd(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = s.deps.GameSvc.EndBoard(claims.ChurchID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "ending quiz board")
	}
	return ctx.NoContent(http.StatusNoContent)
}
