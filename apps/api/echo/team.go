package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core/team"
)

func (s *Server) registerTeamAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	tg := g.Group("/teams", jwt, teacherMiddleware())
	tg.GET("", s.teamList)
	tg.POST("", s.teamCreate)

	detail := tg.Group("/:id", s.ctxTeamMiddleware)
	detail.GET("", s.teamRetrieve)
	detail.PUT("", s.teamUpdate)
	detail.DELETE("", s.teamDelete)
	detail.PUT("/members", s.teamSetMembers)
}

func (s *Server) ctxTeamMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		t, err := s.deps.TeamSvc.GetByID(ctx.Request().Context(), claims.ChurchID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding team")
		}
		ctx.Set(objectContextKey, t)
		return next(ctx)
	}
}

func ctxTeam(ctx echo.Context) (team.Team, error) {
	if t, ok := ctx.Get(objectContextKey).(team.Team); ok {
		return t, nil
	}
	return team.Team{}, errors.New("team missing from context")
}

func (s *Server) teamList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	teams, err := s.deps.TeamSvc.Query(ctx.Request().Context(), claims.ChurchID, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	return ctx.JSON(http.StatusOK, teams)
}

func (s *Server) teamCreate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data team.NewTeam
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeam")
	}
	data.ChurchID = claims.ChurchID
	rctx := ctx.Request().Context()
	if err = data.Validate(rctx, s.deps.Validate, s.deps.TeamSvc); err != nil {
		return err
	}

	t, err := s.deps.TeamSvc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating team")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (s *Server) teamRetrieve(ctx echo.Context) error {
	t, err := ctxTeam(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (s *Server) teamUpdate(ctx echo.Context) error {
	orig, err := ctxTeam(ctx)
	if err != nil {
		return err
	}

	var data team.UpdateTeam
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeam")
	}
	rctx := ctx.Request().Context()
	if err = data.Validate(rctx, orig, s.deps.Validate, s.deps.TeamSvc); err != nil {
		return err
	}

	t, err := s.deps.TeamSvc.Update(rctx, orig, data)
	if err != nil {
		return errors.Wrap(err, "updating team")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (s *Server) teamDelete(ctx echo.Context) error {
	t, err := ctxTeam(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.TeamSvc.Delete(ctx.Request().Context(), t.ChurchID, t.ID); err != nil {
		return errors.Wrap(err, "deleting team")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) teamSetMembers(ctx echo.Context) error {
	orig, err := ctxTeam(ctx)
	if err != nil {
		return err
	}

	var data team.SetMembers
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetMembers")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	t, err := s.deps.TeamSvc.SetMembers(ctx.Request().Context(), orig.ChurchID, orig.ID, data.StudentIDs)
	if err != nil {
		return errors.Wrap(err, "setting team members")
	}
	return ctx.JSON(http.StatusOK, t)
}
