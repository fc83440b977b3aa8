package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := E(CodeTransport, "failed to retrieve https://example.com/x", errors.New("connection refused"))
	assert.Equal(t, "TRANSPORT: failed to retrieve https://example.com/x: connection refused", err.Error())

	err = Ef(CodeDataSource, "%s returned status %d", "https://example.com", 502)
	assert.Equal(t, "DATA_SOURCE: https://example.com returned status 502", err.Error())
}

func TestCodeOfUnwrapsWrappedErrors(t *testing.T) {
	base := Ef(CodeStorage, "upload failed")
	wrapped := fmt.Errorf("processing asset: %w", base)

	assert.Equal(t, CodeStorage, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeStorage))
	assert.False(t, IsCode(wrapped, CodeCleanup))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, CodeTransport))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("tls: failed to verify certificate")
	err := E(CodeTransport, "failed to retrieve url", cause)
	assert.ErrorIs(t, err, cause)
}

func TestRecordAssetHelpers(t *testing.T) {
	r := Record{
		ID:        "abc123",
		PostURL:   "https://example.com/post",
		PosterURL: "https://example.com/poster.pdf",
	}

	assert.Equal(t, "https://example.com/post", r.AssetURL(AssetPost))
	assert.Equal(t, "https://example.com/poster.pdf", r.AssetURL(AssetPoster))
	assert.Equal(t, "abc123.po_post_url", r.AssetBaseName(AssetPost))
	assert.Equal(t, "abc123.po_poster_url", r.AssetBaseName(AssetPoster))
}
