package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core/talent"
)

const (
	defaultEntriesLimit = 50
	maxEntriesLimit     = 500
)

type (
	LedgerResponse struct {
		StudentID string         `json:"student_id"`
		Balance   int            `json:"balance"`
		Entries   []talent.Entry `json:"entries"`
	}

	LeaderboardResponse struct {
		Standings []talent.Standing `json:"standings"`
	}
)

func (s *Server) registerTalentAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	tg := g.Group("/talents", jwt)
	tg.GET("/leaderboard", s.talentLeaderboard)
	tg.GET("/students/:id", s.talentLedger)
	tg.POST("/students/:id", s.talentGrant, teacherMiddleware())
	tg.POST("/bulk", s.talentGrantMany, teacherMiddleware())
}

func (s *Server) talentLeaderboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	standings, err := s.deps.TalentSvc.Leaderboard(ctx.Request().Context(), claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "building leaderboard")
	}
	return ctx.JSON(http.StatusOK, LeaderboardResponse{Standings: standings})
}

func entriesLimit(ctx echo.Context) int {
	limit, err := strconv.Atoi(ctx.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return defaultEntriesLimit
	}
	if limit > maxEntriesLimit {
		return maxEntriesLimit
	}
	return limit
}

func (s *Server) talentLedger(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id := ctx.Param("id")
	if claims.IsStudent() && id != claims.Subject {
		return errHttpForbidden
	}

	rctx := ctx.Request().Context()
	stu, err := s.deps.StudentSvc.GetByID(rctx, claims.ChurchID, id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	resp := LedgerResponse{StudentID: stu.ID}
	if resp.Balance, err = s.deps.TalentSvc.Balance(rctx, claims.ChurchID, stu.ID); err != nil {
		return errors.Wrap(err, "computing balance")
	}
	if resp.Entries, err = s.deps.TalentSvc.Entries(rctx, claims.ChurchID, stu.ID, entriesLimit(ctx)); err != nil {
		return errors.Wrap(err, "querying talent entries")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (s *Server) talentGrant(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data talent.Grant
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grant")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	entry, err := s.deps.TalentSvc.Grant(
		ctx.Request().Context(), claims.ChurchID, claims.Subject, ctx.Param("id"), data.Amount, talent.KindManual, data.Note,
	)
	if err != nil {
		return errors.Wrap(err, "granting talents")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (s *Server) talentGrantMany(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data talent.BulkGrant
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkGrant")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	entries, err := s.deps.TalentSvc.GrantMany(
		ctx.Request().Context(), claims.ChurchID, claims.Subject, data.StudentIDs, data.Amount, talent.KindManual, data.Note,
	)
	if err != nil {
		return errors.Wrap(err, "granting talents")
	}
	return ctx.JSON(http.StatusCreated, entries)
}
