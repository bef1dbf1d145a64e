package media

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestImageType(t *testing.T) {
	ct, ok := ImageType("images/Profile.JPEG")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)

	assert.True(t, IsImage("a.svg"))
	assert.False(t, IsImage("notes.md"))
	assert.False(t, IsImage("noext"))
}

func TestExtFor(t *testing.T) {
	ext, ok := ExtFor("image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, ok = ExtFor("text/plain")
	assert.False(t, ok)
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify("a.png", pngHeader))
	assert.NoError(t, Verify("a.svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`)))

	assert.ErrorIs(t, Verify("a.jpg", pngHeader), ErrMismatch)
	assert.ErrorIs(t, Verify("a.svg", []byte("plain text")), ErrMismatch)
	assert.ErrorIs(t, Verify("a.txt", []byte("plain text")), ErrNotImage)
}

func TestDecodeDataURI(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(pngHeader)

	data, mime, err := DecodeDataURI("data:image/png;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngHeader, data)

	raw := base64.RawStdEncoding.EncodeToString(pngHeader)
	_, _, err = DecodeDataURI("data:image/png;base64," + raw)
	assert.NoError(t, err)

	for name, uri := range map[string]string{
		"not a data uri": "https://example.com/a.png",
		"no comma":       "data:image/png;base64",
		"not base64":     "data:image/png,abc",
		"bad payload":    "data:image/png;base64,!!!",
		"unknown mime":   "data:text/plain;base64," + enc,
	} {
		_, _, err := DecodeDataURI(uri)
		assert.Error(t, err, name)
	}
}
