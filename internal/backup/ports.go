package backup

import (
	"context"
	"time"

	"github.com/midir99/backupmpps/internal/domain"
)

// Fetcher retrieves the record set for an update-time window.
type Fetcher interface {
	FetchRecords(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Record, error)
}

// Downloader fetches one asset URL into destBaseName plus a derived
// extension and returns the filename written.
type Downloader interface {
	Download(ctx context.Context, url, destBaseName string) (string, error)
}

// Compressor shrinks a local file best-effort and returns the filename to
// continue with, possibly renamed.
type Compressor interface {
	Compress(ctx context.Context, filename string) string
}

// Uploader pushes a local file into a bucket, then Cleanup removes the
// local copy.
type Uploader interface {
	Store(ctx context.Context, localFilename, bucket string) error
	Cleanup(ctx context.Context, localFilename string) error
}
