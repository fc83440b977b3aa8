// Package backup drives the per-record pipeline: download both assets,
// compress, upload, clean up. Failures are isolated per asset and per
// record; only a listing fetch failure aborts the run.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/midir99/backupmpps/internal/domain"
	"github.com/midir99/backupmpps/internal/observability"
)

// Orchestrator processes records strictly sequentially: one record at a
// time, one asset at a time.
type Orchestrator struct {
	fetcher    Fetcher
	downloader Downloader
	compressor Compressor
	uploader   Uploader
	bucket     string
	logger     observability.Logger
	metrics    observability.Metrics
}

// New creates an Orchestrator uploading into bucket.
func New(
	fetcher Fetcher,
	downloader Downloader,
	compressor Compressor,
	uploader Uploader,
	bucket string,
	logger observability.Logger,
	metrics observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		downloader: downloader,
		compressor: compressor,
		uploader:   uploader,
		bucket:     bucket,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run fetches every record in the window and backs up both assets of each
// one. The returned error is non-nil only for listing fetch failures; all
// per-asset and per-record failures are contained and logged.
func (o *Orchestrator) Run(ctx context.Context, windowStart, windowEnd time.Time) error {
	runID := uuid.New().String()
	logger := o.logger.WithFields(observability.Fields{"run_id": runID})

	start := time.Now()
	defer func() {
		o.metrics.RecordDuration("run", time.Since(start).Seconds())
	}()

	logger.Info(ctx, "retrieving records", observability.Fields{
		"updated_at_after":  windowStart.Format("2006-01-02"),
		"updated_at_before": windowEnd.Format("2006-01-02"),
	})
	records, err := o.fetcher.FetchRecords(ctx, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("unable to retrieve records: %w", err)
	}

	scratchDir, err := os.MkdirTemp("", "backupmpps-"+runID[:8]+"-")
	if err != nil {
		return fmt.Errorf("unable to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			logger.Error(ctx, "error while removing scratch directory", err, observability.Fields{
				"scratch_dir": scratchDir,
			})
		}
	}()

	total := len(records)
	logger.Info(ctx, "starting the backup", observability.Fields{
		"records":     total,
		"scratch_dir": scratchDir,
	})
	for i := range records {
		o.processRecord(ctx, logger, scratchDir, &records[i])
		logger.Info(ctx, "batch progress", observability.Fields{
			"processed": i + 1,
			"total":     total,
		})
	}
	return nil
}

// processRecord backs up both assets of one record. A panic anywhere in the
// record's sequence is caught here so the batch proceeds to the next
// record.
func (o *Orchestrator) processRecord(ctx context.Context, logger observability.Logger, scratchDir string, record *domain.Record) {
	defer func() {
		if r := recover(); r != nil {
			o.metrics.RecordError("record", "panic")
			logger.Error(ctx, "unhandled error while processing record",
				fmt.Errorf("panic: %v", r),
				observability.Fields{
					"record_id": record.ID,
					"name":      strings.ToUpper(record.Name),
					"stack":     string(debug.Stack()),
				})
		}
	}()

	logger.Info(ctx, "processing record", observability.Fields{
		"record_id": record.ID,
		"name":      strings.ToUpper(record.Name),
	})
	for _, role := range []domain.AssetRole{domain.AssetPost, domain.AssetPoster} {
		o.processAsset(ctx, logger, scratchDir, record, role)
	}
	o.metrics.RecordSuccess("record")
}

// processAsset runs one asset through download, compress, upload and
// cleanup. A failing step short-circuits only the remaining steps for this
// asset; upload failure never blocks cleanup.
func (o *Orchestrator) processAsset(ctx context.Context, logger observability.Logger, scratchDir string, record *domain.Record, role domain.AssetRole) {
	url := record.AssetURL(role)
	destBaseName := filepath.Join(scratchDir, record.AssetBaseName(role))

	logger.Info(ctx, "downloading asset", observability.Fields{
		"record_id": record.ID,
		"role":      string(role),
		"url":       url,
	})
	filename, err := o.downloader.Download(ctx, url, destBaseName)
	if err != nil {
		logger.Error(ctx, "error while downloading asset", err, observability.Fields{
			"record_id": record.ID,
			"role":      string(role),
			"url":       url,
		})
		return
	}

	logger.Info(ctx, "trying to compress asset", observability.Fields{
		"filename": filename,
	})
	filename = o.compressor.Compress(ctx, filename)

	logger.Info(ctx, "uploading asset", observability.Fields{
		"filename": filename,
		"bucket":   o.bucket,
	})
	if err := o.uploader.Store(ctx, filename, o.bucket); err != nil {
		logger.Error(ctx, "error while uploading asset", err, observability.Fields{
			"filename": filename,
			"bucket":   o.bucket,
		})
	}

	logger.Info(ctx, "deleting asset", observability.Fields{
		"filename": filename,
	})
	if err := o.uploader.Cleanup(ctx, filename); err != nil {
		logger.Error(ctx, "error while deleting asset", err, observability.Fields{
			"filename": filename,
		})
	}
}
