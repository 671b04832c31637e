package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "input error",
			code:    "E102",
			wantMsg: "Manifest not found",
			wantCat: CategoryInput,
		},
		{
			name:    "processing error",
			code:    "E204",
			wantMsg: "Publish failed",
			wantCat: CategoryProcessing,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: CategoryProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestRegistryCategories(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		require.True(t, ok)
		switch {
		case strings.HasPrefix(code, "E1"):
			assert.Equal(t, CategoryInput, tmpl.Category, code)
		case strings.HasPrefix(code, "E2"):
			assert.Equal(t, CategoryProcessing, tmpl.Category, code)
		default:
			t.Errorf("unexpected code range %s", code)
		}
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInputError, ExitCode(New("E101")))
	assert.Equal(t, ExitProcessingError, ExitCode(New("E202")))
	assert.Equal(t, ExitProcessingError, ExitCode(io.EOF))

	wrapped := fmt.Errorf("deploy: %w", New("E103"))
	assert.Equal(t, ExitInputError, ExitCode(wrapped))
}

func TestWrapAndUnwrap(t *testing.T) {
	err := New("E204").Wrap(io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "E204: Publish failed")
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "E201"))

	coded := New("E101")
	assert.Same(t, coded, FromError(fmt.Errorf("ctx: %w", coded), "E201"))

	plain := FromError(io.EOF, "E201")
	assert.Equal(t, "E201", plain.Code)
	assert.ErrorIs(t, plain, io.EOF)
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E102").
		WithDetail("No booster.json found in /srv/app").
		WithSuggestion("Run 'booster init'")
	out := err.Format()

	assert.Contains(t, out, "ERROR E102: Manifest not found")
	assert.Contains(t, out, "No booster.json found in /srv/app")
	assert.Contains(t, out, "Hint: Run 'booster init'")
	assert.NotContains(t, out, "\033[")
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, io.EOF)
	assert.Contains(t, b.String(), "ERROR: EOF")

	b.Reset()
	Fprint(&b, New("E205"))
	assert.Contains(t, b.String(), "E205: Directory scan failed")
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Nil(t, wrapText("", 10))
}
