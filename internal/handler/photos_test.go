package handler

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	b64 := base64.StdEncoding.EncodeToString(raw)

	data, ext, err := decodeImage(b64)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, ".jpg", ext)

	data, ext, err = decodeImage("data:image/png;base64," + b64)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, ".png", ext)

	for _, bad := range []string{
		"",
		"not base64!!",
		"data:image/png," + b64,
		"data:application/pdf;base64," + b64,
		"data:image/png;base64",
	} {
		_, _, err := decodeImage(bad)
		assert.ErrorIs(t, err, errBadImage, bad)
	}
}
