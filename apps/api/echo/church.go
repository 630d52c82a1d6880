package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/qt"
	"github.com/trezcool/dalant/core/talent"
	"github.com/trezcool/dalant/core/team"
)

const recentSubmissions = 5

func (s *Server) registerChurchAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	cg := g.Group("/church", jwt)
	cg.GET("", s.churchRetrieve)
	cg.PUT("/settings", s.churchUpdateSettings, adminMiddleware())
}

func (s *Server) registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	g.GET("/me", s.studentDashboard, jwt, studentMiddleware())
}

func (s *Server) churchRetrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ch, err := s.deps.ChurchSvc.GetByID(ctx.Request().Context(), claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (s *Server) churchUpdateSettings(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data church.UpdateSettings
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	ch, err := s.deps.ChurchSvc.UpdateSettings(ctx.Request().Context(), claims.ChurchID, data)
	if err != nil {
		return errors.Wrap(err, "updating church settings")
	}
	return ctx.JSON(http.StatusOK, ch)
}

// DashboardResponse is what a student sees after logging in.
type DashboardResponse struct {
	Student struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Grade string `json:"grade"`
	} `json:"student"`
	Church      string          `json:"church"`
	Balance     int             `json:"balance"`
	Rank        int             `json:"rank"`
	TotalRanked int             `json:"total_ranked"`
	Team        *team.Team      `json:"team"`
	RecentQT    []qt.Submission `json:"recent_qt"`
	Recent      []talent.Entry  `json:"recent_talents"`
}

func (s *Server) studentDashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()

	stu, err := s.deps.StudentSvc.GetByID(rctx, claims.ChurchID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	if !stu.IsActive {
		return errAccountDeactivated
	}
	ch, err := s.deps.ChurchSvc.GetByID(rctx, claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}

	var resp DashboardResponse
	resp.Student.ID = stu.ID
	resp.Student.Name = stu.Name
	resp.Student.Grade = stu.Grade
	resp.Church = ch.Name

	standing, total, err := s.deps.TalentSvc.Rank(rctx, ch.ID, stu.ID)
	if err != nil {
		return errors.Wrap(err, "ranking student")
	}
	resp.Balance = standing.Balance
	resp.Rank = standing.Rank
	resp.TotalRanked = total

	if stu.TeamID != nil {
		t, err := s.deps.TeamSvc.GetByID(rctx, ch.ID, *stu.TeamID)
		if err != nil && errors.Cause(err) != team.ErrNotFound {
			return errors.Wrap(err, "finding team")
		}
		if err == nil {
			resp.Team = &t
		}
	}

	subs, err := s.deps.QTSvc.Query(rctx, ch.ID, &qt.QueryFilter{StudentID: stu.ID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying qt submissions")
	}
	if len(subs) > recentSubmissions {
		subs = subs[:recentSubmissions]
	}
	resp.RecentQT = subs

	if resp.Recent, err = s.deps.TalentSvc.Entries(rctx, ch.ID, stu.ID, recentSubmissions); err != nil {
		return errors.Wrap(err, "querying talent entries")
	}
	return ctx.JSON(http.StatusOK, resp)
}
