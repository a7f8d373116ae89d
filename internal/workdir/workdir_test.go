package workdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alkime/captions/internal/workdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captions")
	t.Setenv("CAPTIONS_HOME", dir)

	root, err := workdir.Root()
	require.NoError(t, err)
	assert.Equal(t, dir, root)

	path, err := workdir.FilePath(workdir.HistoryFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history.sqlite"), path)

	require.NoError(t, workdir.Prep())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
