package compress

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/midir99/backupmpps/internal/domain"
)

// ToolRunner abstracts the invocation of an external command-line tool.
// The exit status and diagnostic text are the only signal the compressor
// consumes.
type ToolRunner interface {
	// Run executes the tool and returns its stdout and stderr text.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs tools through os/exec with a per-invocation timeout.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner creates an ExecRunner. The timeout bounds each single tool
// invocation, independently of the network-request timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Diagnostic substrings the image tools emit on wrong-format input.
const (
	notJPEGDiagnostic = "Not a JPEG file"
	notPNGDiagnostic  = "Not a PNG file"
)

// compressPDF rewrites filename through ghostscript's pdfwrite device with
// the screen-quality preset. The output goes to a temp file first so a
// failed run leaves the original untouched.
func (c *Compressor) compressPDF(ctx context.Context, filename string) error {
	tmpFilename := filename + ".tmp"
	_, stderr, err := c.runner.Run(ctx, "gs",
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/screen",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile="+tmpFilename,
		filename,
	)
	if err != nil {
		os.Remove(tmpFilename)
		return domain.E(domain.CodeCompression, fmt.Sprintf("gs failed on %s: %s", filename, strings.TrimSpace(stderr)), err)
	}
	if err := os.Rename(tmpFilename, filename); err != nil {
		os.Remove(tmpFilename)
		return domain.E(domain.CodeCompression, fmt.Sprintf("failed to replace %s with compressed output", filename), err)
	}
	return nil
}

// compressJPEG optimizes filename in place with jpegoptim. A "Not a JPEG
// file" diagnostic is reported as a COMPRESSION_MISMATCH so the caller can
// fall back to the PNG path.
func (c *Compressor) compressJPEG(ctx context.Context, filename string) error {
	stdout, stderr, err := c.runner.Run(ctx, "jpegoptim", "-v", filename)
	if err != nil {
		if strings.Contains(stdout, notJPEGDiagnostic) || strings.Contains(stderr, notJPEGDiagnostic) {
			return domain.Ef(domain.CodeCompressionMismatch, "%s is not a JPEG file", filename)
		}
		return domain.E(domain.CodeCompression, fmt.Sprintf("jpegoptim failed on %s: %s", filename, strings.TrimSpace(stderr)), err)
	}
	return nil
}

// compressPNG recompresses filename in place with pngcrush in maximal
// effort mode. pngcrush reports wrong-format input on stderr, sometimes
// with a zero exit status, so the diagnostic is checked either way.
func (c *Compressor) compressPNG(ctx context.Context, filename string) error {
	_, stderr, err := c.runner.Run(ctx, "pngcrush", "-brute", "-ow", filename)
	if strings.Contains(stderr, notPNGDiagnostic) {
		return domain.Ef(domain.CodeCompressionMismatch, "%s is not a PNG file", filename)
	}
	if err != nil {
		return domain.E(domain.CodeCompression, fmt.Sprintf("pngcrush failed on %s: %s", filename, strings.TrimSpace(stderr)), err)
	}
	return nil
}
