package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	echoapi "github.com/trezcool/dalant/apps/api/echo"
	"github.com/trezcool/dalant/apps/shared"
	"github.com/trezcool/dalant/core"
	appfs "github.com/trezcool/dalant/fs"
	emailsvc "github.com/trezcool/dalant/services/email"
	"github.com/trezcool/dalant/services/jobs"
	logsvc "github.com/trezcool/dalant/services/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return errors.Wrap(err, "setting up zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	var mailSvc core.EmailService
	if conf.SendgridApiKey != "" {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	}

	app, err := shared.NewApp(conf, logger, mailSvc)
	if err != nil {
		return errors.Wrap(err, "setting up app")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator(logger)
	core.ParseEmailTemplates(appfs.FS, conf, logger)

	digest := jobs.NewDigest(app.ChurchSvc, app.TeacherSvc, app.StudentSvc, app.QTSvc, mailSvc, logger)
	scheduler, err := jobs.NewScheduler(conf, digest, app.GameSvc, logger)
	if err != nil {
		return errors.Wrap(err, "setting up scheduler")
	}

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		ChurchSvc:     app.ChurchSvc,
		TeacherSvc:    app.TeacherSvc,
		StudentSvc:    app.StudentSvc,
		TeamSvc:       app.TeamSvc,
		AttendanceSvc: app.AttendanceSvc,
		QTSvc:         app.QTSvc,
		TalentSvc:     app.TalentSvc,
		QuizSvc:       app.QuizSvc,
		GameSvc:       app.GameSvc,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	debugSrv := &http.Server{Addr: conf.Server.DebugHost, Handler: http.DefaultServeMux}

	// =========================================================================
	// Start API Service, jobs & wait for shutdown

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.Start()
		return nil
	})
	g.Go(func() error {
		if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		var runErr error
		select {
		case runErr = <-server.Errors():
			logger.Error(fmt.Sprintf("server error: %v", runErr), runErr)
		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		case <-gctx.Done():
		}
		cancel()

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
		_ = debugSrv.Shutdown(sctx)
		return runErr
	})
	return g.Wait()
}
