package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	fromFile, err := DigestFile(path)
	require.NoError(t, err)
	assert.Len(t, fromFile, 64)
	assert.Equal(t, DigestBytes([]byte("a,b\n1,2\n")), fromFile)
	assert.NotEqual(t, DigestBytes([]byte("a,b\n1,3\n")), fromFile)

	_, err = DigestFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
