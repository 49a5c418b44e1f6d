package zap

import (
	"context"
	"errors"
	"testing"

	logpkg "github.com/lucrumlabs/vault-ledger/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean string unchanged", "hello world", "hello world"},
		{"newline escaped", "line1\nline2", `line1\nline2`},
		{"carriage return escaped", "line1\rline2", `line1\rline2`},
		{"tab escaped", "col1\tcol2", `col1\tcol2`},
		{"mixed control chars escaped", "a\nb\rc\td", `a\nb\rc\td`},
		{"empty string unchanged", "", ""},
		{"no false positives on backslash-n literal", `already\nescaped`, `already\nescaped`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, sanitizeString(tc.input))
		})
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	t.Run("string values escaped", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `has\nnewline`, sanitizeValue("has\nnewline"))
	})

	t.Run("non-string values pass through", func(t *testing.T) {
		t.Parallel()

		err := errors.New("error with\nnewline")
		assert.Equal(t, 42, sanitizeValue(42))
		assert.Equal(t, 3.14, sanitizeValue(3.14))
		assert.Same(t, err, sanitizeValue(err).(error)) //nolint:errorlint // intentional identity check
		assert.Nil(t, sanitizeValue(nil))
	})
}

func TestLog_EscapesInjectedControlChars(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(t)

	// A caller identity forged to start a fake log line.
	logger.Log(context.Background(), logpkg.LevelInfo, "vault created",
		logpkg.String("owner", "mallory\nFAKE level=INFO msg=admin granted"),
	)
	logger.Log(context.Background(), logpkg.LevelWarn, "rejected\nFAKE entry")

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, `mallory\nFAKE level=INFO msg=admin granted`, entries[0].ContextMap()["owner"])
	assert.Equal(t, `rejected\nFAKE entry`, entries[1].Message)
}
