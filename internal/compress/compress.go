// Package compress shrinks downloaded assets with external command-line
// tools, dispatching on the file extension.
//
// The image formats carry a fallback edge between them: when a tool reports
// that its input is actually the sibling format, the file is re-run through
// the sibling tool and renamed on success. Compression is strictly best
// effort; every failure degrades to returning the file as-is.
package compress

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/midir99/backupmpps/internal/domain"
	"github.com/midir99/backupmpps/internal/observability"
)

// format is the compression variant chosen for a file.
type format int

const (
	formatOther format = iota
	formatDocument
	formatJPEG
	formatPNG
)

// formatFor picks the compression variant from a file extension.
func formatFor(ext string) format {
	switch strings.ToLower(ext) {
	case ".pdf":
		return formatDocument
	case ".jpeg":
		return formatJPEG
	case ".png":
		return formatPNG
	default:
		return formatOther
	}
}

// extension returns the canonical extension of a format. Only meaningful
// for the image variants.
func (f format) extension() string {
	if f == formatPNG {
		return ".png"
	}
	return ".jpeg"
}

// sibling returns the other image format.
func (f format) sibling() format {
	if f == formatJPEG {
		return formatPNG
	}
	return formatJPEG
}

// Compressor applies format-specific compression to local files.
type Compressor struct {
	runner  ToolRunner
	logger  observability.Logger
	metrics observability.Metrics
}

// New creates a Compressor that invokes tools through runner.
func New(runner ToolRunner, logger observability.Logger, metrics observability.Metrics) *Compressor {
	return &Compressor{
		runner:  runner,
		logger:  logger,
		metrics: metrics,
	}
}

// Compress shrinks filename in place and returns the filename the caller
// should continue with, which differs from the input only when the
// image-format fallback renamed the file. Compress never fails upward:
// on any tool failure the original file is kept and returned.
func (c *Compressor) Compress(ctx context.Context, filename string) string {
	c.metrics.StartOperation("compress")
	defer c.metrics.EndOperation("compress")
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration("compress", time.Since(start).Seconds())
	}()

	switch formatFor(filepath.Ext(filename)) {
	case formatDocument:
		if err := c.compressPDF(ctx, filename); err != nil {
			c.metrics.RecordError("compress", "document")
			c.logger.Warn(ctx, "unable to compress file", observability.Fields{
				"filename": filename,
				"reason":   err.Error(),
			})
			return filename
		}
		c.metrics.RecordSuccess("compress")
		return filename
	case formatJPEG:
		return c.compressImage(ctx, filename, formatJPEG)
	case formatPNG:
		return c.compressImage(ctx, filename, formatPNG)
	default:
		// Pass-through, notably .html.
		return filename
	}
}

// compressImage runs the tool for the primary image format and, on a
// wrong-format diagnostic, retries through the sibling format, renaming the
// file to the sibling extension when that succeeds.
func (c *Compressor) compressImage(ctx context.Context, filename string, primary format) string {
	err := c.runImageTool(ctx, filename, primary)
	if err == nil {
		c.metrics.RecordSuccess("compress")
		return filename
	}
	if !domain.IsCode(err, domain.CodeCompressionMismatch) {
		c.metrics.RecordError("compress", "image")
		c.logger.Warn(ctx, "unable to compress file", observability.Fields{
			"filename": filename,
			"reason":   err.Error(),
		})
		return filename
	}

	sibling := primary.sibling()
	if err := c.runImageTool(ctx, filename, sibling); err != nil {
		c.metrics.RecordError("compress", "image_fallback")
		c.logger.Warn(ctx, "unable to compress file", observability.Fields{
			"filename": filename,
			"reason":   err.Error(),
		})
		return filename
	}

	renamed, err := changeExtension(filename, sibling.extension())
	if err != nil {
		c.metrics.RecordError("compress", "rename")
		c.logger.Warn(ctx, "unable to rename compressed file", observability.Fields{
			"filename": filename,
			"reason":   err.Error(),
		})
		return filename
	}
	c.metrics.RecordSuccess("compress")
	c.logger.Info(ctx, "file was in the sibling image format, compressed and renamed", observability.Fields{
		"filename": filename,
		"renamed":  renamed,
	})
	return renamed
}

func (c *Compressor) runImageTool(ctx context.Context, filename string, f format) error {
	if f == formatPNG {
		return c.compressPNG(ctx, filename)
	}
	return c.compressJPEG(ctx, filename)
}

// changeExtension renames filename to carry newExt and returns the new
// name.
func changeExtension(filename, newExt string) (string, error) {
	newFilename := strings.TrimSuffix(filename, filepath.Ext(filename)) + newExt
	if newFilename == filename {
		return filename, nil
	}
	if err := os.Rename(filename, newFilename); err != nil {
		return "", err
	}
	return newFilename, nil
}
