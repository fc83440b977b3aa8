package compress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midir99/backupmpps/internal/observability/mocks"
)

type toolCall struct {
	name string
	args []string
}

// fakeRunner scripts external tool behavior per tool name and records
// every invocation.
type fakeRunner struct {
	calls  []toolCall
	handle func(name string, args []string) (string, string, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	f.calls = append(f.calls, toolCall{name: name, args: args})
	if f.handle == nil {
		return "", "", nil
	}
	return f.handle(name, args)
}

func (f *fakeRunner) toolNames() []string {
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.name
	}
	return names
}

func newTestCompressor(runner ToolRunner) *Compressor {
	return New(runner, mocks.NopLogger{}, mocks.NopMetrics{})
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, content, 0o644))
	return filename
}

func TestCompressPassThroughExtensions(t *testing.T) {
	runner := &fakeRunner{}
	content := []byte("<html><body>post</body></html>")
	filename := writeTempFile(t, "abc123.po_post_url.html", content)

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	assert.Empty(t, runner.calls)
	after, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestCompressPDFRewritesInPlace(t *testing.T) {
	compressed := []byte("%PDF-1.4 compressed")
	runner := &fakeRunner{
		handle: func(name string, args []string) (string, string, error) {
			require.Equal(t, "gs", name)
			var output string
			for _, arg := range args {
				if strings.HasPrefix(arg, "-sOutputFile=") {
					output = strings.TrimPrefix(arg, "-sOutputFile=")
				}
			}
			require.NotEmpty(t, output)
			require.NoError(t, os.WriteFile(output, compressed, 0o644))
			return "", "", nil
		},
	}
	filename := writeTempFile(t, "abc123.po_poster_url.pdf", []byte("%PDF-1.7 original original original"))

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	require.Equal(t, []string{"gs"}, runner.toolNames())
	assert.Contains(t, runner.calls[0].args, "-dPDFSETTINGS=/screen")
	after, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, compressed, after)
}

func TestCompressPDFFailureKeepsOriginal(t *testing.T) {
	runner := &fakeRunner{
		handle: func(name string, args []string) (string, string, error) {
			return "", "Error: /undefined in obj", errors.New("exit status 1")
		},
	}
	original := []byte("%PDF-1.7 original")
	filename := writeTempFile(t, "abc123.po_poster_url.pdf", original)

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	after, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, original, after)
	// The temp output must not be left behind.
	_, err = os.Stat(filename + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCompressJPEGThatIsActuallyPNG(t *testing.T) {
	runner := &fakeRunner{
		handle: func(name string, args []string) (string, string, error) {
			if name == "jpegoptim" {
				return "x.jpeg: Not a JPEG file", "", errors.New("exit status 1")
			}
			return "", "", nil
		},
	}
	content := []byte{0x89, 'P', 'N', 'G'}
	filename := writeTempFile(t, "abc123.po_poster_url.jpeg", content)

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	want := strings.TrimSuffix(filename, ".jpeg") + ".png"
	assert.Equal(t, want, result)
	assert.Equal(t, []string{"jpegoptim", "pngcrush"}, runner.toolNames())
	after, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, content, after)
	_, err = os.Stat(filename)
	assert.True(t, os.IsNotExist(err))
}

func TestCompressPNGThatIsActuallyJPEG(t *testing.T) {
	runner := &fakeRunner{
		handle: func(name string, args []string) (string, string, error) {
			if name == "pngcrush" {
				// pngcrush reports wrong-format input on stderr with a
				// zero exit status.
				return "", "x.png: Not a PNG file", nil
			}
			return "", "", nil
		},
	}
	content := []byte{0xFF, 0xD8, 0xFF}
	filename := writeTempFile(t, "abc123.po_poster_url.png", content)

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	want := strings.TrimSuffix(filename, ".png") + ".jpeg"
	assert.Equal(t, want, result)
	assert.Equal(t, []string{"pngcrush", "jpegoptim"}, runner.toolNames())
	after, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestCompressFallbackFailureKeepsOriginalName(t *testing.T) {
	runner := &fakeRunner{
		handle: func(name string, args []string) (string, string, error) {
			if name == "jpegoptim" {
				return "x.jpeg: Not a JPEG file", "", errors.New("exit status 1")
			}
			return "", "pngcrush: fatal error", errors.New("exit status 2")
		},
	}
	content := []byte("neither format")
	filename := writeTempFile(t, "abc123.po_poster_url.jpeg", content)

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	assert.Equal(t, []string{"jpegoptim", "pngcrush"}, runner.toolNames())
	after, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestCompressJPEGPlainFailureSkipsFallback(t *testing.T) {
	runner := &fakeRunner{
		handle: func(name string, args []string) (string, string, error) {
			return "", "jpegoptim: error opening file", errors.New("exit status 1")
		},
	}
	filename := writeTempFile(t, "abc123.po_poster_url.jpeg", []byte{0xFF, 0xD8})

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	assert.Equal(t, []string{"jpegoptim"}, runner.toolNames())
}

func TestCompressJPEGSuccessKeepsName(t *testing.T) {
	runner := &fakeRunner{}
	filename := writeTempFile(t, "abc123.po_poster_url.jpeg", []byte{0xFF, 0xD8})

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	assert.Equal(t, []string{"jpegoptim"}, runner.toolNames())
	require.Len(t, runner.calls[0].args, 2)
	assert.Equal(t, "-v", runner.calls[0].args[0])
}

func TestCompressPNGSuccessUsesBruteOverwrite(t *testing.T) {
	runner := &fakeRunner{}
	filename := writeTempFile(t, "abc123.po_poster_url.png", []byte{0x89, 'P'})

	result := newTestCompressor(runner).Compress(context.Background(), filename)

	assert.Equal(t, filename, result)
	require.Equal(t, []string{"pngcrush"}, runner.toolNames())
	assert.Equal(t, []string{"-brute", "-ow", filename}, runner.calls[0].args)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, formatDocument, formatFor(".pdf"))
	assert.Equal(t, formatJPEG, formatFor(".jpeg"))
	assert.Equal(t, formatPNG, formatFor(".png"))
	assert.Equal(t, formatOther, formatFor(".html"))
	assert.Equal(t, formatOther, formatFor(""))
}
