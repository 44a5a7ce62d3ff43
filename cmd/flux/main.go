package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/flux/internal/api"
	"github.com/terraincognita07/flux/internal/cli"
	"github.com/terraincognita07/flux/internal/config"
	"github.com/terraincognita07/flux/internal/db"
	"github.com/terraincognita07/flux/internal/ingest"
	"github.com/terraincognita07/flux/internal/logging"
	"github.com/terraincognita07/flux/internal/security"
	"github.com/terraincognita07/flux/internal/services"
)

const maxUploadBytes = 32 << 20

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "serve":
		err = runServe()
	case "train":
		err = runTrain(args[1:], stdout, stderr)
	case "token":
		err = runToken(args[1:], stdout, stderr)
	case "secret":
		err = cli.RunSecretCommand(stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: flux <command> [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  serve    Run the HTTP API")
	fmt.Fprintln(out, "  train    Train a model from an export file and save its parameters")
	fmt.Fprintln(out, "  token    Print a bearer token for a profile")
	fmt.Fprintln(out, "  secret   Print a freshly generated SECRET_KEY")
}

func runTrain(args []string, stdout io.Writer, stderr io.Writer) error {
	flags := flag.NewFlagSet("train", flag.ContinueOnError)
	flags.SetOutput(stderr)

	opts := cli.TrainOptions{}
	flags.StringVar(&opts.Input, "i", "", "input export file (flo or app JSON)")
	flags.StringVar(&opts.Input, "input", "", "input export file (flo or app JSON)")
	flags.StringVar(&opts.Output, "o", cli.DefaultParamsPath, "where to save model parameters")
	flags.StringVar(&opts.Output, "output", cli.DefaultParamsPath, "where to save model parameters")
	flags.StringVar(&opts.Format, "format", ingest.FormatAuto, "input format: auto, flo or app")
	flags.StringVar(&opts.ModelType, "model", services.ModelTypeAuto, "model type: auto or weighted_average")
	flags.BoolVar(&opts.Quiet, "quiet", false, "suppress progress messages")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewWithOutput(stderr, cfg.LogLevel, cfg.LogFormat)
	return cli.RunTrainCommand(opts, stdout, logger)
}

func runToken(args []string, stdout io.Writer, stderr io.Writer) error {
	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	flags.SetOutput(stderr)
	profile := flags.String("profile", "", "profile name the token grants access to")
	ttl := flags.Duration("ttl", api.DefaultTokenTTL, "token lifetime")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	secret, err := cfg.RequireSecretKey()
	if err != nil {
		return err
	}
	return cli.RunTokenCommand(secret, *profile, *ttl, stdout)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	time.Local = cfg.Location
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	secret, err := cfg.RequireSecretKey()
	if err != nil {
		return err
	}
	passphrase, err := resolvePassphrase(cfg)
	if err != nil {
		return err
	}

	database, err := db.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	sealer, err := security.NewSealer(passphrase, security.DefaultKeyIterations)
	if err != nil {
		return err
	}

	repositories := db.NewRepositories(database)
	training := services.NewTrainingService(repositories.Datasets, repositories.Models, sealer, logger)
	handler, err := api.NewHandler(training, secret, logger)
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := newApp(handler, logger)

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()
	scheduler := services.NewRetrainScheduler(training, cfg.RetrainSchedule, cfg.Location, logger)
	if err := scheduler.Start(lifecycleCtx); err != nil {
		return err
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port": cfg.Port,
		"db":   cfg.DBPath,
		"tz":   cfg.Location.String(),
	}).Info("FLux listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func resolvePassphrase(cfg config.Config) (string, error) {
	passphrase, err := cfg.RequirePassphrase()
	if err == nil {
		return passphrase, nil
	}
	prompted, promptErr := cli.PromptPassphrase("Data passphrase: ", os.Stdin, os.Stdout)
	if promptErr != nil {
		return "", err
	}
	return prompted, nil
}

func newApp(handler *api.Handler, logger *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "FLux",
		DisableStartupMessage: true,
		BodyLimit:             maxUploadBytes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: logger.Writer()}))
	api.RegisterRoutes(app, handler)
	return app
}
