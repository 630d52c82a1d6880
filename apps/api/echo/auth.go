package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/teacher"
)

// roles
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

const tokenContextKey = "token"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	ChurchID     string `json:"church_id"`
	ChurchCode   string `json:"church_code"`
	Role         string `json:"role"`
	Name         string `json:"name,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

func (c Claims) IsTeacher() bool { return c.Role == RoleTeacher }
func (c Claims) IsStudent() bool { return c.Role == RoleStudent }

func (c Claims) LogPerson() core.LogPerson {
	return core.LogPerson{ID: c.Subject, Username: c.ChurchCode + "/" + c.Name}
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

func newClaims(conf *core.Config, ch church.Church, subject, role, name string, isAdmin bool, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  ch.Code,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		ChurchID:     ch.ID,
		ChurchCode:   ch.Code,
		Role:         role,
		Name:         name,
		IsAdmin:      isAdmin,
	}
}

func NewTeacherClaims(conf *core.Config, ch church.Church, t teacher.Teacher, origIat ...int64) *Claims {
	return newClaims(conf, ch, t.ID, RoleTeacher, t.Name, t.IsAdmin, origIat...)
}

func NewStudentClaims(conf *core.Config, ch church.Church, s student.Student, origIat ...int64) *Claims {
	return newClaims(conf, ch, s.ID, RoleStudent, s.Name, false, origIat...)
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func (s *Server) authenticateStudent(ctx echo.Context, churchCode, code string) (*Claims, error) {
	ch, err := s.deps.ChurchSvc.GetByCode(ctx.Request().Context(), churchCode)
	if err != nil {
		if errors.Cause(err) == church.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding church by code")
	}
	stu, err := s.deps.StudentSvc.GetByCode(ctx.Request().Context(), ch.ID, code)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding student by code")
	}
	if !stu.IsActive {
		return nil, errAccountDeactivated
	}
	return NewStudentClaims(s.deps.Conf, ch, stu), nil
}

func (s *Server) authenticateTeacher(ctx echo.Context, churchCode, loginID, pwd string) (*Claims, error) {
	rctx := ctx.Request().Context()
	ch, err := s.deps.ChurchSvc.GetByCode(rctx, churchCode)
	if err != nil {
		if errors.Cause(err) == church.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding church by code")
	}
	t, err := s.deps.TeacherSvc.GetByLoginID(rctx, ch.ID, loginID)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding teacher by login ID")
	}
	if err = t.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !t.IsActive {
		return nil, errAccountDeactivated
	}
	if t, err = s.deps.TeacherSvc.SetLastLogin(rctx, t); err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return NewTeacherClaims(s.deps.Conf, ch, t), nil
}

// refreshToken re-issues the context token while the account is active and the refresh window is open.
func (s *Server) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.deps.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	rctx := ctx.Request().Context()
	ch, err := s.deps.ChurchSvc.GetByID(rctx, claims.ChurchID)
	if err != nil {
		if core.IsNotFound(err) {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "finding church by ID")
	}

	var newClaims *Claims
	switch claims.Role {
	case RoleTeacher:
		t, err := s.deps.TeacherSvc.GetByID(rctx, ch.ID, claims.Subject)
		if err != nil {
			if core.IsNotFound(err) {
				return "", errUnauthorized
			}
			return "", errors.Wrap(err, "finding teacher by ID")
		}
		if !t.IsActive {
			return "", errAccountDeactivated
		}
		newClaims = NewTeacherClaims(s.deps.Conf, ch, t, claims.OrigIssuedAt)
	case RoleStudent:
		stu, err := s.deps.StudentSvc.GetByID(rctx, ch.ID, claims.Subject)
		if err != nil {
			if core.IsNotFound(err) {
				return "", errUnauthorized
			}
			return "", errors.Wrap(err, "finding student by ID")
		}
		if !stu.IsActive {
			return "", errAccountDeactivated
		}
		newClaims = NewStudentClaims(s.deps.Conf, ch, stu, claims.OrigIssuedAt)
	default:
		return "", errUnauthorized
	}

	token, err := GenerateToken(s.deps.Conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}
