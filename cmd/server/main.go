package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/urfave/cli/v2"

	auth "github.com/edutech/lms-auth"
)

// zlogger adapts zerolog to the auth.Logger contract
type zlogger struct {
	log zerolog.Logger
}

func (z zlogger) Debug(format string, args ...any) { z.log.Debug().Msgf(format, args...) }
func (z zlogger) Info(format string, args ...any)  { z.log.Info().Msgf(format, args...) }
func (z zlogger) Error(format string, args ...any) { z.log.Error().Msgf(format, args...) }

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()

	app := &cli.App{
		Name:  "lms-server",
		Usage: "Edu Tech LMS authentication server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":5000",
				Usage:   "listen address",
				EnvVars: []string{"ADDR"},
			},
			&cli.StringFlag{
				Name:    "dsn",
				Value:   "file:edu_tech.db?cache=shared",
				Usage:   "database DSN",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, log, c.String("addr"), c.String("dsn"))
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger, addr, dsn string) error {
	cfg := auth.NewEnvConfig()
	logger := zlogger{log}

	if cfg.UsingFallbackSecret() {
		log.Warn().Msg("JWT_SECRET_KEY not set; using the built-in development secret, do not run this in production")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if _, err := db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)
	confirmations := auth.NewConfirmationService(
		[]byte(cfg.GetSigningKey()),
		auth.PurposeEmailConfirm,
		time.Duration(cfg.GetConfirmationMaxAge())*time.Hour,
		cfg.GetIssuer(),
		logger,
	)

	provider := auth.NewUserProvider(repo.Users()).WithLogger(logger)
	auther := auth.NewAuthenticator(provider, tokens).WithLogger(logger)
	mailer := auth.NewLogMailer(logger)
	register := auth.NewRegisterUserHandler(repo, confirmations, mailer, cfg).WithLogger(logger)

	controller := auth.NewAuthController(
		auther, register, confirmations, repo.Users(),
		auth.WithLogger(logger),
	)
	mw := auth.NewAuthMiddleware(tokens, repo.Users(), cfg).WithLogger(logger)

	srv := fiber.New(fiber.Config{
		AppName:               "lms-server",
		DisableStartupMessage: true,
	})
	auth.RegisterAuthRoutes(srv, controller, mw)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	log.Info().Str("addr", addr).Msg("listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}
