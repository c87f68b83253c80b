package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestParseImageDataURL(t *testing.T) {
	img, err := ParseImage("data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, []byte{0, 0, 0}, img.Data)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", img.DataURL())
}

func TestParseImageSniffsPNG(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(pngHeader)

	img, err := ParseImage("data:image/jpeg;base64," + raw)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	bare, err := ParseImage(raw)
	require.NoError(t, err)
	assert.Equal(t, "image/png", bare.MIMEType)
}

func TestParseImageRejects(t *testing.T) {
	cases := []string{
		"",
		"data:image/gif;base64,AAAA",
		"data:image/png,notbase64",
		"data:image/png;base64,@@@@",
	}
	for _, raw := range cases {
		_, err := ParseImage(raw)
		assert.Error(t, err, raw)
	}
}
