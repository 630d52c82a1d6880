package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/teacher"
)

const passwordResetSuccess = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type (
	StudentLoginRequest struct {
		ChurchCode string `json:"church_code" validate:"required"`
		Code       string `json:"code" validate:"required,studentcode"`
	}

	TeacherLoginRequest struct {
		ChurchCode string `json:"church_code" validate:"required"`
		LoginID    string `json:"login_id" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	PasswordResetRequest struct {
		ChurchCode string `json:"church_code" validate:"required"`
		Email      string `json:"email" validate:"required,email"`
	}
)

func (lr *StudentLoginRequest) Validate(validate *validator.Validate) error {
	lr.ChurchCode = church.NormalizeCode(lr.ChurchCode)
	lr.Code = core.CleanString(lr.Code)
	return validate.Struct(lr)
}

func (lr *TeacherLoginRequest) Validate(validate *validator.Validate) error {
	lr.ChurchCode = church.NormalizeCode(lr.ChurchCode)
	lr.LoginID = core.CleanString(lr.LoginID, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.ChurchCode = church.NormalizeCode(pr.ChurchCode)
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (s *Server) registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ag := g.Group("/auth")

	// un-authed endpoints
	limiter := loginRateLimiter(s.deps.Conf.Server.LoginRateLimit)
	ag.POST("/student-login", s.studentLogin, limiter)
	ag.POST("/teacher-login", s.teacherLogin, limiter)
	ag.POST("/password-reset", s.resetPassword, limiter)
	ag.POST("/password-reset-confirm", s.confirmPasswordReset, limiter)

	// authed endpoints
	ag.POST("/token-refresh", s.tokenRefresh, jwt)
}

func (s *Server) studentLogin(ctx echo.Context) error {
	var data StudentLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentLoginRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	claims, err := s.authenticateStudent(ctx, data.ChurchCode, data.Code)
	if err != nil {
		return errors.Wrap(err, "authenticating student")
	}
	token, err := GenerateToken(s.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (s *Server) teacherLogin(ctx echo.Context) error {
	var data TeacherLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherLoginRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	claims, err := s.authenticateTeacher(ctx, data.ChurchCode, data.LoginID, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating teacher")
	}
	token, err := GenerateToken(s.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (s *Server) tokenRefresh(ctx echo.Context) error {
	token, err := s.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (s *Server) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	ch, err := s.deps.ChurchSvc.GetByCode(rctx, data.ChurchCode)
	if err == nil {
		err = s.deps.TeacherSvc.RequestPasswordReset(rctx, ch.ID, ch.Name, data.Email)
	}
	if err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		s.deps.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: passwordResetSuccess})
}

func (s *Server) confirmPasswordReset(ctx echo.Context) error {
	var data teacher.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	if _, err := s.deps.TeacherSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
