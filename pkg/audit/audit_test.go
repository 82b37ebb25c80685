package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureWritesTabSeparatedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	l := New(path)
	require.NotNil(t, l)
	defer l.Close()

	l.Failure("antrag.pdf", 3, "keyword resolution failed")
	l.Failure("vertrag.pdf", 1, "no form fields")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	first := strings.Split(lines[0], "\t")
	require.Len(t, first, 4)
	assert.Equal(t, "antrag.pdf", first[1])
	assert.Equal(t, "3", first[2])
	assert.Equal(t, "keyword resolution failed", first[3])

	second := strings.Split(lines[1], "\t")
	assert.Equal(t, "vertrag.pdf", second[1])
	assert.Equal(t, "no form fields", second[3])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Failure("x.pdf", 1, "whatever")
	})
	assert.NoError(t, l.Close())

	assert.Nil(t, New(""))
}
