package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"a",
		"body{margin:0}",
		"var café = \"ünïcödé\";",
		strings.Repeat("function f(){return 1}\n", 500),
	}

	for _, text := range tests {
		gz, err := GzipString(text)
		require.NoError(t, err)

		out, err := Gunzip(gz)
		require.NoError(t, err)
		assert.Equal(t, text, string(out))
	}
}

func TestGzipDeterministic(t *testing.T) {
	text := strings.Repeat("a{color:red}", 100)

	first, err := GzipString(text)
	require.NoError(t, err)
	second, err := GzipString(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Less(t, len(first), len(text))
	assert.Equal(t, []byte{0x1f, 0x8b}, first[:2])
}

func TestGunzipRejectsPlainText(t *testing.T) {
	_, err := Gunzip([]byte("not gzip"))
	assert.Error(t, err)
}
