package applog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterAppendsLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decision.log")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteLine(DecisionLine('A', 'S', "h", "/bin/true", "", "")))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "A|S|h|/bin/true\n", string(data))
}
