package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/guru-1432/workout-app/internal/config"
	"github.com/guru-1432/workout-app/internal/database"
	"github.com/guru-1432/workout-app/internal/handler"
	"github.com/guru-1432/workout-app/internal/identity"
	"github.com/guru-1432/workout-app/internal/logging"
	"github.com/guru-1432/workout-app/internal/mail"
	"github.com/guru-1432/workout-app/internal/metrics"
	"github.com/guru-1432/workout-app/internal/repository"
	"github.com/guru-1432/workout-app/internal/router"
	"github.com/guru-1432/workout-app/internal/seed"
	"github.com/guru-1432/workout-app/internal/service"
)

var (
	skipMigrate bool
	skipSeed    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")
		c.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not insert the default catalogue on startup")
	}
}

// bootstrap loads configuration, sets up logging and opens the database.
func bootstrap() (config.Config, *sqlx.DB, error) {
	cfg := config.Load()
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogFile,
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogJSON,
	})

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return cfg, nil, err
	}
	log.WithFields(log.Fields{"host": cfg.DBHost, "db": cfg.DBName}).Info("database connected")
	return cfg, db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	muscles := repository.NewMuscleRepo(db)
	exercises := repository.NewExerciseRepo(db)
	if !skipSeed {
		if _, err := seed.Run(ctx, muscles, exercises, seed.Catalogue); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("backend", "workout_app", reg)

	auth := service.NewAuth(service.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		BcryptCost:    cfg.BcryptCost,
		ResetTokenTTL: cfg.ResetTokenTTL,
		ResetURL:      cfg.BaseURL + "/reset-password",
	}, repository.NewUserRepo(db), identityVerifier(ctx, cfg), mailer(cfg))

	e := router.New(router.Deps{
		Auth:        handler.NewAuthHandler(auth, m),
		Catalogue:   handler.NewCatalogueHandler(muscles, exercises),
		Workouts:    handler.NewWorkoutHandler(repository.NewWorkoutRepo(db), m),
		Sessions:    auth,
		DB:          db,
		Metrics:     m,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   cfg.StaticDir,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Debug("graceful shutdown initiated ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to gracefully shutdown http server")
		return err
	}
	log.Warnln("server shut down")
	return nil
}

// identityVerifier returns nil when federated login is not configured.
func identityVerifier(ctx context.Context, cfg config.Config) service.IdentityVerifier {
	v, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		if errors.Is(err, identity.ErrNotConfigured) {
			log.Info("GOOGLE_CLIENT_ID not set, federated login disabled")
		} else {
			log.WithError(err).Error("federated login disabled")
		}
		return nil
	}
	return v
}

// mailer returns nil when no SMTP relay is configured.
func mailer(cfg config.Config) service.Mailer {
	mm, err := mail.NewSMTPMailer(mail.Config{
		Server:   cfg.Mail.Server,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		StartTLS: cfg.Mail.StartTLS,
		SSLTLS:   cfg.Mail.SSLTLS,
	})
	if err != nil {
		log.WithError(err).Warn("password reset mail disabled")
		return nil
	}
	return mm
}
