package validation

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFileContentByMagicBytes(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{"csv", []byte("\"Date\",\"Price\"\n\"09/30/2022\",\"43.84\"\n"), false},
		{"utf8 bom csv", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Price\n")...), false},
		{"empty", nil, false},
		{"zip (xlsx)", []byte("PK\x03\x04\x14\x00\x06\x00"), true},
		{"pdf", []byte("%PDF-1.7\n"), true},
		{"html error page", []byte("<!DOCTYPE html><html><body>rate limited</body></html>"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.content)
			_, err := ValidateFileContentByMagicBytes(r)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNotText), "got %v", err)
				return
			}
			require.NoError(t, err)

			// rewound for the parser
			rest, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, len(tt.content), len(rest))
		})
	}
}

func TestValidateFileContentByMagicBytesNil(t *testing.T) {
	_, err := ValidateFileContentByMagicBytes(nil)
	assert.Error(t, err)
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "1,234.56", StripUnprintable("1,234.56"))
	assert.Equal(t, "1234.56", StripUnprintable("1\u00a0234.56"))
	assert.Equal(t, "70.82M", StripUnprintable("\u200b70.82M\x00"))
	assert.Equal(t, "a\tb", StripUnprintable("a\tb"))
}
