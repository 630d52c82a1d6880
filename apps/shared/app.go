package shared

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/attendance"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/game"
	"github.com/trezcool/dalant/core/qt"
	"github.com/trezcool/dalant/core/quiz"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/talent"
	"github.com/trezcool/dalant/core/teacher"
	"github.com/trezcool/dalant/core/team"
	"github.com/trezcool/dalant/services/filestore"
	"github.com/trezcool/dalant/storage/database"
	inmemdb "github.com/trezcool/dalant/storage/database/inmem"
	sqlxrepos "github.com/trezcool/dalant/storage/database/sqlx"
)

// database engines & storage backends
const (
	EnginePostgres = "postgres"
	EngineMemory   = "memory"

	BackendLocal  = "local"
	BackendOSS    = "oss"
	BackendMemory = "memory"
)

// App holds the services shared by the API and the admin CLI.
type App struct {
	DB    *sqlx.DB // nil with the memory engine
	Store core.FileStore

	ChurchSvc     *church.Service
	TeacherSvc    *teacher.Service
	StudentSvc    *student.Service
	TeamSvc       *team.Service
	TalentSvc     *talent.Service
	AttendanceSvc *attendance.Service
	QTSvc         *qt.Service
	QuizSvc       *quiz.Service
	GameSvc       *game.Service
}

type repositories struct {
	churches   church.Repository
	teachers   teacher.Repository
	students   student.Repository
	teams      team.Repository
	talents    talent.Repository
	attendance attendance.Repository
	qt         qt.Repository
	quiz       quiz.Repository
}

// NewApp opens the configured database (creating and migrating it when needed) and file store,
// then wires every service on top of them.
func NewApp(conf *core.Config, logger core.Logger, mailSvc core.EmailService) (*App, error) {
	app := new(App)

	var (
		repos repositories
		tx    core.Transactor
	)
	switch conf.Database.Engine {
	case EnginePostgres:
		db, err := setUpDB(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		app.DB = db
		r := sqlxrepos.NewRepositories(db)
		repos = repositories{r.Churches, r.Teachers, r.Students, r.Teams, r.Talents, r.Attendance, r.QT, r.Quiz}
		tx = database.NewTransactor(db)
	case EngineMemory:
		db := inmemdb.Open()
		r := db.Repositories()
		repos = repositories{r.Churches, r.Teachers, r.Students, r.Teams, r.Talents, r.Attendance, r.QT, r.Quiz}
		tx = db
	default:
		return nil, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
	}

	store, err := newFileStore(conf.Storage)
	if err != nil {
		_ = app.Close()
		return nil, errors.Wrap(err, "setting up file store")
	}
	app.Store = store

	app.ChurchSvc = church.NewService(repos.churches, conf)
	app.TeacherSvc = teacher.NewService(repos.teachers, mailSvc, conf)
	app.StudentSvc = student.NewService(repos.students)
	app.TeamSvc = team.NewService(repos.teams, tx)
	app.TalentSvc = talent.NewService(repos.talents, tx)
	app.AttendanceSvc = attendance.NewService(repos.attendance, app.StudentSvc, app.ChurchSvc, app.TalentSvc, tx)
	app.QTSvc = qt.NewService(
		repos.qt, store, filestore.NewPhotoProcessor(conf.Storage), app.ChurchSvc, app.TalentSvc, tx, logger,
	)
	app.QuizSvc = quiz.NewService(repos.quiz, tx)
	app.GameSvc = game.NewService(game.NewRegistry(), app.TeamSvc, app.StudentSvc, app.QuizSvc, app.TalentSvc, logger)
	return app, nil
}

func (app *App) Close() error {
	if app.DB == nil {
		return nil
	}
	return app.DB.Close()
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newFileStore(sc core.StorageConfig) (core.FileStore, error) {
	switch sc.Backend {
	case BackendLocal:
		return filestore.NewLocalStore(sc.LocalDir, sc.PublicBaseURL)
	case BackendOSS:
		return filestore.NewOSSStore(sc)
	case BackendMemory:
		return filestore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}
