package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "quota exceeded", errorMessage("429 Too Many Requests", []byte(`{"error":{"message":"quota exceeded"}}`)))
	assert.Equal(t, "upstream down", errorMessage("502 Bad Gateway", []byte("  upstream down\n")))
	assert.Equal(t, "503 Service Unavailable", errorMessage("503 Service Unavailable", nil))

	long := errorMessage("500", []byte(strings.Repeat("오류", maxErrorMessage)))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, maxErrorMessage, utf8.RuneCountInString(long))
}
