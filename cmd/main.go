package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yungbote/neurobridge-coursepack/internal/app"
	"github.com/yungbote/neurobridge-coursepack/internal/config"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to a YAML config file (default $COURSEPACK_CONFIG)")
		userID     = flag.String("user", "", "uploader user id")
		email      = flag.String("email", "", "uploader email, used when -user is empty")
		migrate    = flag.Bool("migrate", true, "auto-migrate the schema before importing")
		textfile   = flag.String("metrics-textfile", "", "write prometheus metrics to this file on exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] course.zip...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if *textfile != "" {
		cfg.Telemetry.MetricsTextfile = *textfile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Migrate: *migrate})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	svc := a.Services.CourseUpload
	user, err := svc.ResolveUser(ctx, *userID, *email)
	if err != nil {
		a.Log.Error("cannot resolve uploader", "error", err)
		return 1
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := importOne(ctx, a, svc, user.ID, path); err != nil {
			failed++
			code := aggregates.CodeOf(err)
			if code == "" {
				code = "error"
			}
			fmt.Printf("%s: %s: %v\n", path, code, err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func importOne(ctx context.Context, a *app.App, svc services.CourseUploadService, userID uuid.UUID, path string) error {
	// #nosec G304 -- archive paths come from the operator's command line.
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := svc.UploadArchive(ctx, userID, filepath.Base(path), f)
	if err != nil {
		return err
	}
	state := "updated"
	if res.IsNew {
		state = "created"
	}
	fmt.Printf("%s: %s %s (version %d)\n", path, state, res.Course.Shortname, res.Course.Version)
	for _, m := range res.Messages {
		fmt.Printf("  [%s] %s\n", m.Level, m.Text)
	}

	summary, err := svc.Describe(ctx, res.Course.Shortname)
	if err != nil {
		a.Log.Warn("describe failed", "shortname", res.Course.Shortname, "error", err)
		return nil
	}
	for _, s := range summary.Sections {
		if s.Baseline {
			fmt.Printf("  baseline: %d activities\n", s.Activities)
			continue
		}
		fmt.Printf("  section %d %q: %d activities\n", s.Order, s.Title, s.Activities)
	}
	fmt.Printf("  media files: %d\n", summary.Media)
	return a.FlushMetrics()
}
