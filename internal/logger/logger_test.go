package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr); SetLevel("info") })

	SetLevel("warn")
	L.Info("hidden")
	require.Zero(t, buf.Len())

	L.Warn("shown", "platform", "kakaotalk")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, "kakaotalk", rec["platform"])
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "firewood.log")
	c, err := OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	L.Error("boom")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"boom"`)
}
