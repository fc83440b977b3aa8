// Command backupmpps backs up the post page and poster file of every
// missing-person-poster record updated inside a date window, compressing
// each asset and uploading it to an object-storage bucket.
//
// Usage:
//
//	backupmpps [flags] <dateFrom> <dateTo> <bucket>
//
// Dates are ISO format (2022-05-31). The environment must provide
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/midir99/backupmpps/internal/api"
	"github.com/midir99/backupmpps/internal/backup"
	"github.com/midir99/backupmpps/internal/compress"
	"github.com/midir99/backupmpps/internal/config"
	"github.com/midir99/backupmpps/internal/download"
	"github.com/midir99/backupmpps/internal/observability"
	"github.com/midir99/backupmpps/internal/observability/logger"
	"github.com/midir99/backupmpps/internal/observability/metrics"
	s3storage "github.com/midir99/backupmpps/internal/storage/s3"
)

type programArgs struct {
	dateFrom time.Time
	dateTo   time.Time
	bucket   string

	apiEndpointURL string
	s3EndpointURL  string
	logfile        string
}

func parseArgs() (*programArgs, error) {
	apiEndpointURL := flag.String("api-endpoint-url", "",
		"Alternate endpoint URL of the listing API (i.e. http://localhost:8000).")
	s3EndpointURL := flag.String("s3-endpoint-url", "",
		"Alternate endpoint URL for the object-storage service.")
	logfile := flag.String("logfile", "",
		"Filename of the logfile, leave blank for console logging.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <dateFrom> <dateTo> <bucket>\n\n"+
				"Backs up the post page and poster file of every record whose\n"+
				"updated_at field falls between dateFrom and dateTo (ISO dates,\n"+
				"e.g. 2022-05-31). Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.\n\nFlags:\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		return nil, fmt.Errorf("expected 3 arguments (dateFrom, dateTo, bucket), got %d", flag.NArg())
	}
	dateFrom, err := time.Parse("2006-01-02", flag.Arg(0))
	if err != nil {
		return nil, fmt.Errorf("invalid dateFrom: %w", err)
	}
	dateTo, err := time.Parse("2006-01-02", flag.Arg(1))
	if err != nil {
		return nil, fmt.Errorf("invalid dateTo: %w", err)
	}
	if dateFrom.After(dateTo) {
		return nil, fmt.Errorf("dateFrom must be before or equal to dateTo")
	}
	return &programArgs{
		dateFrom:       dateFrom,
		dateTo:         dateTo,
		bucket:         flag.Arg(2),
		apiEndpointURL: *apiEndpointURL,
		s3EndpointURL:  *s3EndpointURL,
		logfile:        *logfile,
	}, nil
}

func buildLogger(cfg *config.Config, logfile string) (observability.Logger, func(), error) {
	opts := []logger.Option{logger.WithLevel(logger.ParseLevel(cfg.LogLevel))}
	if cfg.LogJSON {
		opts = append(opts, logger.WithJSON())
	}
	if logfile == "" {
		return logger.NewStdout(opts...), func() {}, nil
	}
	file, err := os.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open logfile %s: %w", logfile, err)
	}
	return logger.New(file, opts...), func() { file.Close() }, nil
}

func main() {
	args, err := parseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if args.apiEndpointURL != "" {
		cfg.APIEndpointURL = args.apiEndpointURL
	}
	if args.s3EndpointURL != "" {
		cfg.Storage.Endpoint = args.s3EndpointURL
	}

	log, closeLog, err := buildLogger(cfg, args.logfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateCredentials(); err != nil {
		log.Error(ctx, "missing storage credentials", err, nil)
		os.Exit(1)
	}

	m := metrics.New(cfg.ServiceName, prometheus.DefaultRegisterer)

	uploader, err := s3storage.NewUploader(ctx, s3storage.Config{
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Endpoint:        cfg.Storage.Endpoint,
		Timeout:         cfg.Storage.Timeout,
	}, log, m)
	if err != nil {
		log.Error(ctx, "unable to initialize object storage client", err, nil)
		os.Exit(1)
	}

	orchestrator := backup.New(
		api.NewClient(cfg.APIEndpointURL, cfg.RequestTimeout, log, m),
		download.New(cfg.RequestTimeout, log, m),
		compress.New(compress.NewExecRunner(cfg.CompressTimeout), log, m),
		uploader,
		args.bucket,
		log,
		m,
	)

	if err := orchestrator.Run(ctx, args.dateFrom, args.dateTo); err != nil {
		log.Error(ctx, "backup run failed", err, nil)
		os.Exit(1)
	}
}
